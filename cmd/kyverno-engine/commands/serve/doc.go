package serve

var description = []string{
	`Serves the admission webhook.`,
	`Policies are loaded from the given files or folders and evaluated on every AdmissionReview received on /validate and /mutate.`,
	`The policy set is reloaded when the folders change and, optionally, on a cron schedule.`,
}

var examples = [][]string{
	{
		"# Serve over HTTPS",
		"kyverno-engine serve /path/to/policies --address :9443 --tlsCertFile tls.crt --tlsKeyFile tls.key",
	},
	{
		"# Fail open after 5 seconds and resync every 10 minutes",
		"kyverno-engine serve /path/to/policies --failurePolicy Ignore --webhookTimeout 5s --resync '@every 10m'",
	},
}
