package config

const (
	defaultStateDir         = "~/.local/share/vodflow"
	defaultLogDir           = "~/.local/share/vodflow/logs"
	defaultUploadPolicyName = "VodflowUploadPolicy"
	defaultReadPolicyName   = "VodflowReadPolicy"
	defaultAssetNamePrefix  = "VodflowAsset"
	defaultLocatorPrefix    = "Vodflow"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	// defaultPolicyDurationMinutes is three years, matching the service's
	// long-lived grant convention.
	defaultPolicyDurationMinutes = 1576800

	defaultUploadConcurrency = 1
	defaultPollInterval      = 5
	defaultJobMaxWaitMinutes = 120

	// defaultProcessorID identifies the standard encoder on the remote
	// service. The pipeline uses processor_id whenever it is non-empty; a
	// by-name catalog lookup happens only when processor_id is cleared and
	// processor_name is set, so no name is defaulted here.
	defaultProcessorID = "nb:mpid:UUID:ff4df607-d419-42f0-bc17-a481b1331e56"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Service: Service{
			ProcessorID: defaultProcessorID,
		},
		Policies: Policies{
			UploadPolicyName: defaultUploadPolicyName,
			ReadPolicyName:   defaultReadPolicyName,
			DurationMinutes:  defaultPolicyDurationMinutes,
		},
		Assets: Assets{
			NamePrefix: defaultAssetNamePrefix,
		},
		Locators: Locators{
			NamePrefix: defaultLocatorPrefix,
		},
		Upload: Upload{
			Concurrency: defaultUploadConcurrency,
		},
		Job: Job{
			PollIntervalSeconds: defaultPollInterval,
			MaxWaitMinutes:      defaultJobMaxWaitMinutes,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
