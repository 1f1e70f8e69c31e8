package config

const SourceFileExt = ".reb"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".reb", ".r"}

// OptionsFileNames are searched for by FindOptions, in order.
var OptionsFileNames = []string{"ren.yaml", "ren.yml"}

// Names of natives the host layers refer to directly.
const (
	PrintNativeName  = "print"
	HaltNativeName   = "halt"
	ReturnNativeName = "return"
	UnwindNativeName = "unwind"
)

// Defaults applied to options left unset.
const (
	DefaultInterruptInterval = 1024
	DefaultMaxDepth          = 10000
	DefaultPoolBuckets       = 16
	DefaultSymbolTableSize   = 1021
	DefaultLogLevel          = "info"
)
