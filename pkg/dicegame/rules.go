package dicegame

import (
	"io/ioutil"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Rules captures the tunable numbers of the game. The defaults are the
// canonical rules; deployments may override them with a YAML file.
type Rules struct {
	// MaxPlayers is the hard room capacity.
	MaxPlayers int `yaml:"maxPlayers"`
	// LuckySevenBonus is added to the pot when a seven lands inside the
	// lucky window.
	LuckySevenBonus int `yaml:"luckySevenBonus"`
	// LuckyRollWindow is the number of rolls at the start of a round during
	// which a seven is lucky instead of a bust.
	LuckyRollWindow int `yaml:"luckyRollWindow"`
}

func DefaultRules() Rules {
	return Rules{
		MaxPlayers:      8,
		LuckySevenBonus: 70,
		LuckyRollWindow: 3,
	}
}

func (ru Rules) Validate() error {
	if ru.MaxPlayers < 1 {
		return errors.New("maxPlayers must be at least 1")
	}
	if ru.LuckySevenBonus < 0 {
		return errors.New("luckySevenBonus must not be negative")
	}
	if ru.LuckyRollWindow < 0 {
		return errors.New("luckyRollWindow must not be negative")
	}
	return nil
}

func MarshalRules(ru Rules) ([]byte, error) {
	return yaml.Marshal(ru)
}

func UnmarshalRules(data []byte) (Rules, error) {
	ru := DefaultRules()
	if err := yaml.Unmarshal(data, &ru); err != nil {
		return Rules{}, err
	}
	if err := ru.Validate(); err != nil {
		return Rules{}, err
	}
	return ru, nil
}

func LoadRulesFile(path string) (Rules, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return Rules{}, errors.Wrap(err, "failed to read rules file")
	}
	ru, err := UnmarshalRules(b)
	if err != nil {
		return Rules{}, errors.Wrapf(err, "failed to parse rules file %s", path)
	}
	return ru, nil
}
