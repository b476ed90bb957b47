package metrics

type PolicyValidationMode string

const (
	Enforce PolicyValidationMode = "enforce"
	Audit   PolicyValidationMode = "audit"
	Warn    PolicyValidationMode = "warn"
)

type PolicyType string

const (
	Cluster    PolicyType = "cluster"
	Namespaced PolicyType = "namespaced"
)

type RuleType string

const (
	Validate      RuleType = "validate"
	Mutate        RuleType = "mutate"
	Generate      RuleType = "generate"
	EmptyRuleType RuleType = "-"
)

type RuleResult string

const (
	Pass  RuleResult = "pass"
	Fail  RuleResult = "fail"
	Skip  RuleResult = "skip"
	Error RuleResult = "error"
)

type ResourceRequestOperation string

const (
	ResourceCreated   ResourceRequestOperation = "create"
	ResourceUpdated   ResourceRequestOperation = "update"
	ResourceDeleted   ResourceRequestOperation = "delete"
	ResourceConnected ResourceRequestOperation = "connect"
)
