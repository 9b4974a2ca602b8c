package kafka

import "fmt"

// AWSMSKIAMConfig holds the static credentials used for the AWS_MSK_IAM mechanism.
type AWSMSKIAMConfig struct {
	AccessKey    string `koanf:"accessKey"`
	SecretKey    string `koanf:"secretKey"`
	SessionToken string `koanf:"sessionToken"`
	UserAgent    string `koanf:"userAgent"`
}

func (c *AWSMSKIAMConfig) Validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("AWS_MSK_IAM requires both accessKey and secretKey")
	}
	return nil
}
