package cmd

import "github.com/crytic/codetwin/config"

// DefaultProjectConfigFilename describes the default config filename for a given project folder.
const DefaultProjectConfigFilename = config.DefaultConfigFile

// LogFilePrefix describes the name structured log files written to the log directory start with.
const LogFilePrefix = "codetwin"
