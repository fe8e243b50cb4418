package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Everything has a usable default
// so the server can start with no config file at all.
type Config struct {
	Server     Server     `yaml:"server" json:"server"`
	Room       Room       `yaml:"room" json:"room"`
	Classifier Classifier `yaml:"classifier" json:"classifier"`
	Report     Report     `yaml:"report" json:"report"`
	Scoring    Scoring    `yaml:"scoring" json:"scoring"`
	Tasks      []TaskDef  `yaml:"tasks" json:"tasks"`
}

type Server struct {
	Addr       string `yaml:"addr" json:"addr"`
	DataDir    string `yaml:"data_dir" json:"data_dir"`
	ReportsDir string `yaml:"reports_dir" json:"reports_dir"`
	StaticDir  string `yaml:"static_dir" json:"static_dir"`
}

type Room struct {
	ID        string `yaml:"id" json:"id"`
	CleanerID string `yaml:"cleaner_id" json:"cleaner_id"`
}

// Classifier points at the externally hosted image model: a model manifest
// plus a label metadata document, loaded asynchronously at startup.
type Classifier struct {
	ModelURL       string `yaml:"model_url" json:"model_url"`
	MetadataURL    string `yaml:"metadata_url" json:"metadata_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

type Report struct {
	AuditorEndpoint string `yaml:"auditor_endpoint" json:"auditor_endpoint"`
	ForwardTimeout  int    `yaml:"forward_timeout_seconds" json:"forward_timeout_seconds"`
}

// Scoring carries the label->policy table. New labels are config additions,
// not code edits.
type Scoring struct {
	AlertBelow      int           `yaml:"alert_below" json:"alert_below"`
	FixCommitScore  int           `yaml:"fix_commit_score" json:"fix_commit_score"`
	FixDisplayScore int           `yaml:"fix_display_score" json:"fix_display_score"`
	Labels          []LabelPolicy `yaml:"labels" json:"labels"`
}

// LabelPolicy maps one classifier label to an outcome. Outcome is "accept"
// or "fix"; MaxScore of 0 means uncapped. Labels absent from the table are
// treated as fix.
type LabelPolicy struct {
	Label    string `yaml:"label" json:"label"`
	Outcome  string `yaml:"outcome" json:"outcome"`
	MaxScore int    `yaml:"max_score" json:"max_score"`
}

type TaskDef struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Order  int    `yaml:"order" json:"order"`
	Weight int    `yaml:"weight" json:"weight"`
	Pin    PinDef `yaml:"pin" json:"pin"`
	Advice string `yaml:"advice" json:"advice"`
}

type PinDef struct {
	Left float64 `yaml:"left" json:"left"`
	Top  float64 `yaml:"top" json:"top"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "data"
	}
	if c.Server.ReportsDir == "" {
		c.Server.ReportsDir = "reports"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.Room.ID == "" {
		c.Room.ID = "101"
	}
	if c.Room.CleanerID == "" {
		c.Room.CleanerID = "USER_01"
	}
	if c.Classifier.ModelURL == "" {
		c.Classifier.ModelURL = "/static/model/model.json"
	}
	if c.Classifier.MetadataURL == "" {
		c.Classifier.MetadataURL = "/static/model/metadata.json"
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = 15
	}
	if c.Report.ForwardTimeout <= 0 {
		c.Report.ForwardTimeout = 5
	}
	if c.Scoring.AlertBelow == 0 {
		c.Scoring.AlertBelow = 60
	}
	if c.Scoring.FixCommitScore == 0 {
		c.Scoring.FixCommitScore = 40
	}
	if c.Scoring.FixDisplayScore == 0 {
		c.Scoring.FixDisplayScore = 30
	}
	if len(c.Scoring.Labels) == 0 {
		c.Scoring.Labels = DefaultLabelPolicies()
	}
	if len(c.Tasks) == 0 {
		c.Tasks = DefaultTasks()
	}
}

func DefaultLabelPolicies() []LabelPolicy {
	return []LabelPolicy{
		{Label: "perfect", Outcome: "accept", MaxScore: 0},
		{Label: "good", Outcome: "accept", MaxScore: 85},
		{Label: "bad", Outcome: "fix"},
	}
}

// DefaultTasks is the standard single-room cleaning route.
func DefaultTasks() []TaskDef {
	return []TaskDef{
		{ID: "trash", Label: "Collect trash", Order: 1, Weight: 10, Pin: PinDef{Left: 83, Top: 46},
			Advice: "Check the bottom of the bin and under the desk for anything missed."},
		{ID: "bed", Label: "Make the bed", Order: 2, Weight: 30, Pin: PinDef{Left: 45, Top: 28},
			Advice: "Smooth every wrinkle out of the sheets and align the pillow logos."},
		{ID: "bath", Label: "Bathroom", Order: 3, Weight: 20, Pin: PinDef{Left: 70, Top: 22},
			Advice: "Look for hair in the drain and water scale on the mirror."},
		{ID: "sink", Label: "Sink counter", Order: 4, Weight: 15, Pin: PinDef{Left: 80, Top: 22},
			Advice: "Wipe water droplets off the glasses and line up the amenities."},
		{ID: "floor", Label: "Vacuum floor", Order: 5, Weight: 15, Pin: PinDef{Left: 52, Top: 50},
			Advice: "Work from the far wall toward the door so the carpet pile lines up."},
		{ID: "amen", Label: "Final walkthrough", Order: 6, Weight: 10, Pin: PinDef{Left: 60, Top: 70},
			Advice: "Turn back at the door: lights on, nothing left behind."},
	}
}

// Load reads the YAML config at path. A missing file is not an error; the
// returned config is the defaults. Malformed YAML is an error.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.ApplyDefaults()
			applyEnv(&c)
			return &c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	applyEnv(&c)
	return &c, nil
}
