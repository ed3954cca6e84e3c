package domain

// Config represents the labgrader configuration loaded from labgrader.yaml.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Paths  PathsConfig  `mapstructure:"paths"`
	Grade  GradeConfig  `mapstructure:"grade"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	ResultsFile  string `mapstructure:"results_file"`
	DBPath       string `mapstructure:"db_path"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type PathsConfig struct {
	RubricsDir  string `mapstructure:"rubrics_dir"`
	ReceiptsDir string `mapstructure:"receipts_dir"`
}

type GradeConfig struct {
	SubmitURL string `mapstructure:"submit_url"`
	Color     bool   `mapstructure:"color"`
	// Masking hides sensitive data keys in saved receipts.
	Masking bool `mapstructure:"masking"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// DefaultConfig provides sane defaults if labgrader.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ResultsFile:  "submissions.csv",
			MaxBodyBytes: 1 << 20,
		},
		Paths: PathsConfig{
			RubricsDir:  "rubrics",
			ReceiptsDir: "receipts",
		},
		Grade: GradeConfig{
			Color:   true,
			Masking: true,
		},
	}
}

// WorkspaceSpec describes where a workspace is scaffolded.
type WorkspaceSpec struct {
	Root string
}
