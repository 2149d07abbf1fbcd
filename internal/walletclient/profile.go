package walletclient

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Profile aponta para uma instância do wallet-service
type Profile struct {
	BaseURL    string        `toml:"base_url"`
	AdminToken string        `toml:"admin_token"`
	Timeout    time.Duration `toml:"timeout"`
}

// ProfileFile é o arquivo ~/.config/walletctl/config.toml:
//
//	current = "local"
//	[profiles.local]
//	base_url = "http://localhost:8082"
//	admin_token = "change-me"
type ProfileFile struct {
	Current  string             `toml:"current"`
	Profiles map[string]Profile `toml:"profiles"`
}

func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "walletctl.toml"
	}
	return filepath.Join(dir, "walletctl", "config.toml")
}

// LoadProfile lê o arquivo e escolhe o perfil (name vazio usa current).
// Arquivo ausente resulta no perfil local padrão.
func LoadProfile(path, name string) (Profile, error) {
	def := Profile{BaseURL: "http://localhost:8082", Timeout: 5 * time.Second}

	var f ProfileFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) && name == "" {
			return def, nil
		}
		return Profile{}, fmt.Errorf("read profile file %s: %w", path, err)
	}

	if name == "" {
		name = f.Current
	}
	if name == "" {
		name = "default"
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found in %s", name, path)
	}
	if p.BaseURL == "" {
		p.BaseURL = def.BaseURL
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p, nil
}
