package mockapi_config

import (
	"fmt"

	"github.com/spf13/viper"
)

type SeedLink struct {
	Title    string `mapstructure:"title"`
	URL      string `mapstructure:"url"`
	Type     string `mapstructure:"type"`
	Platform string `mapstructure:"platform"`
	Inactive bool   `mapstructure:"inactive"`
}

type SeedUser struct {
	Email     string     `mapstructure:"email"`
	Username  string     `mapstructure:"username"`
	Password  string     `mapstructure:"password"`
	FullName  string     `mapstructure:"full_name"`
	Bio       string     `mapstructure:"bio"`
	Verified  bool       `mapstructure:"verified"`
	Private   bool       `mapstructure:"private"`
	PageTitle string     `mapstructure:"page_title"`
	Links     []SeedLink `mapstructure:"links"`
}

type Seed struct {
	Users []SeedUser `mapstructure:"users"`
}

// LoadSeed reads a fixture file in any format viper understands.
func LoadSeed(path string) (*Seed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, u := range s.Users {
		if u.Email == "" || u.Username == "" || u.Password == "" {
			return nil, ErrConfig(fmt.Sprintf("seed user %d: email, username and password are required", i))
		}
	}
	return &s, nil
}
