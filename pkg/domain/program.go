package domain

// FlagStyle selects how a parameter is laid out on the command line.
type FlagStyle string

const (
	FlagStyleEquals   FlagStyle = "equals"   // --name=value
	FlagStyleSeparate FlagStyle = "separate" // --name value
)

// Program is the external training or attack program a sweep targets.
type Program struct {
	Command   string            `json:"command" yaml:"command" mapstructure:"command"`
	Args      []string          `json:"args,omitempty" yaml:"args" mapstructure:"args"`
	Dir       string            `json:"dir,omitempty" yaml:"dir" mapstructure:"dir"`
	Env       map[string]string `json:"env,omitempty" yaml:"env" mapstructure:"env"`
	LogDir    string            `json:"log_dir,omitempty" yaml:"log_dir" mapstructure:"log_dir"`
	FlagStyle FlagStyle         `json:"flag_style,omitempty" yaml:"flag_style" mapstructure:"flag_style"`
}

// Invocation is one configuration bound for dispatch.
type Invocation struct {
	SweepID string
	Index   int
	Case    string
	Config  Configuration
}
