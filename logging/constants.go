package logging

// Values of the "module" field that identify which package a log line came from.
const (
	// COMPILATION_SERVICE identifies the compilation package
	COMPILATION_SERVICE = "compilation"
	// PLATFORM_SERVICE identifies the compiler backends
	PLATFORM_SERVICE = "platforms"
)
