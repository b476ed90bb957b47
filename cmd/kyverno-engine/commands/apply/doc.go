package apply

var description = []string{
	`Applies policies on resources.`,
	`Resources are evaluated offline, one admission review per resource, and the command exits with an error when a resource is denied.`,
}

var examples = [][]string{
	{
		"# Apply on a resource",
		"kyverno-engine apply /path/to/policy.yaml /path/to/folderOfPolicies --resource=/path/to/resource1 --resource=/path/to/resource2",
	},
	{
		"# Apply on a folder of resources",
		"kyverno-engine apply /path/to/policy.yaml /path/to/folderOfPolicies --resource=/path/to/resources/",
	},
	{
		"# Apply policies from a git repository",
		"kyverno-engine apply https://github.com/kyverno/policies/best-practices --git-branch main --resource=/path/to/resources/",
	},
	{
		"# Print verdicts as YAML for an update",
		"kyverno-engine apply /path/to/policy.yaml --resource=/path/to/resource.yaml --operation UPDATE -o yaml",
	},
}
