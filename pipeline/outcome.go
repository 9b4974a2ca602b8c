package pipeline

type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseDeploy   Phase = "deploy"
	PhaseMigrate  Phase = "migrate"
)

// Outcome is the result of processing a single item (topic config or schema file) in a phase.
type Outcome string

const (
	// validate
	OutcomeCompatibleRecord   Outcome = "CompatibleRecord"
	OutcomeIncompatibleRecord Outcome = "IncompatibleRecord"

	// deploy
	OutcomeCreated            Outcome = "Created"
	OutcomeAlreadyExists      Outcome = "AlreadyExists"
	OutcomeBrokerError        Outcome = "BrokerError"
	OutcomeAdminProtocolError Outcome = "AdminProtocolError"

	// migrate
	OutcomeMigrated Outcome = "Migrated"

	// shared
	OutcomeTopicConfigValid Outcome = "TopicConfigValid"
	OutcomeNonRecordSkipped Outcome = "NonRecordSkipped"
	OutcomeReadError        Outcome = "ReadError"
	OutcomeParseError       Outcome = "ParseError"
	OutcomeFormatError      Outcome = "FormatError"
	OutcomeRegistryError    Outcome = "RegistryError"
)

// IsFailure reports whether the outcome is a failure of the item. Whether a failure fails the
// run depends on the phase, see Service.record.
func (o Outcome) IsFailure() bool {
	switch o {
	case OutcomeCompatibleRecord, OutcomeNonRecordSkipped, OutcomeCreated, OutcomeAlreadyExists,
		OutcomeMigrated, OutcomeTopicConfigValid:
		return false
	default:
		return true
	}
}
