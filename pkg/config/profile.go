package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

// Duration wraps time.Duration so YAML profiles can use values like "2h"
// or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2h\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Profile holds the operator-tunable consensus and emergency settings
// loaded from YAML at startup.
type Profile struct {
	Consensus ConsensusProfile `yaml:"consensus" json:"consensus"`
	Emergency EmergencyProfile `yaml:"emergency" json:"emergency"`
	Limits    LimitsProfile    `yaml:"limits" json:"limits"`
}

// ConsensusProfile seeds the voting parameters.
type ConsensusProfile struct {
	RequiredVotes  int      `yaml:"required_votes" json:"required_votes"`
	TotalWatchdogs int      `yaml:"total_watchdogs" json:"total_watchdogs"`
	VotingPeriod   Duration `yaml:"voting_period" json:"voting_period"`
}

// EmergencyProfile tunes the critical-report monitor.
type EmergencyProfile struct {
	Window         Duration `yaml:"window" json:"window"`
	PauseThreshold int      `yaml:"pause_threshold" json:"pause_threshold"`
}

// LimitsProfile tunes per-caller API rate limiting.
type LimitsProfile struct {
	RPM   int `yaml:"rpm" json:"rpm"`
	Burst int `yaml:"burst" json:"burst"`
}

// DefaultProfile returns the settings used when no profile file exists.
func DefaultProfile() *Profile {
	return &Profile{
		Consensus: ConsensusProfile{
			RequiredVotes:  2,
			TotalWatchdogs: 3,
			VotingPeriod:   Duration(2 * time.Hour),
		},
		Emergency: EmergencyProfile{
			Window:         Duration(time.Hour),
			PauseThreshold: 3,
		},
		Limits: LimitsProfile{
			RPM:   120,
			Burst: 30,
		},
	}
}

// LoadProfile reads and validates a YAML profile. A missing file is not
// an error; defaults apply.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", path, err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", path, err)
	}
	return profile, nil
}

func (p *Profile) Validate() error {
	if err := p.ConsensusParameters().Validate(); err != nil {
		return err
	}
	if p.Emergency.Window.Std() <= 0 {
		return fmt.Errorf("emergency window must be positive, got %s", p.Emergency.Window.Std())
	}
	if p.Emergency.PauseThreshold < 1 {
		return fmt.Errorf("pause threshold must be at least 1, got %d", p.Emergency.PauseThreshold)
	}
	if p.Limits.RPM < 1 || p.Limits.Burst < 1 {
		return fmt.Errorf("rate limits must be positive, got rpm=%d burst=%d", p.Limits.RPM, p.Limits.Burst)
	}
	return nil
}

// ConsensusParameters converts the profile section into the engine's
// parameter type.
func (p *Profile) ConsensusParameters() contracts.ConsensusParameters {
	return contracts.ConsensusParameters{
		RequiredVotes:  p.Consensus.RequiredVotes,
		TotalWatchdogs: p.Consensus.TotalWatchdogs,
		VotingPeriod:   p.Consensus.VotingPeriod.Std(),
	}
}
