package cmd

// DefaultProjectConfigFilename describes the default config filename for a given project folder.
const DefaultProjectConfigFilename = "solbuild.json"

// DefaultEnvironmentFilename describes the dotenv file consulted for environment overrides.
const DefaultEnvironmentFilename = ".env"

// DefaultCompilationPlatform describes the default compilation platform to use if one is not provided
const DefaultCompilationPlatform = "solc"
