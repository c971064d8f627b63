package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Route struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Name        string `yaml:"name"`
}

// ID маршрута в истории, например "WAW-BCN".
func (r Route) ID() string {
	return r.Origin + "-" + r.Destination
}

func (r Route) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Origin + " → " + r.Destination
}

// Search - какие рейсы проверяем при каждом запуске.
type Search struct {
	Routes      []Route  `yaml:"routes"`
	Dates       []string `yaml:"dates"`
	Adults      int      `yaml:"adults"`
	MaxResults  int      `yaml:"max_results"`
	Currency    string   `yaml:"currency"`
	HistorySize int      `yaml:"history_size"`
}

func LoadSearch(path string) (Search, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Search{}, fmt.Errorf("read search config %q: %w", path, err)
	}

	var s Search
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Search{}, fmt.Errorf("parse search config %q: %w", path, err)
	}

	if err := s.normalize(); err != nil {
		return Search{}, fmt.Errorf("search config %q: %w", path, err)
	}
	return s, nil
}

func (s *Search) normalize() error {
	if len(s.Routes) == 0 {
		return fmt.Errorf("at least one route is required")
	}
	if len(s.Dates) == 0 {
		return fmt.Errorf("at least one departure date is required")
	}

	for i, r := range s.Routes {
		r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
		r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
		if len(r.Origin) != 3 || len(r.Destination) != 3 {
			return fmt.Errorf("route %d: origin and destination must be 3-letter IATA codes", i+1)
		}
		s.Routes[i] = r
	}

	for _, d := range s.Dates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("invalid departure date %q: want YYYY-MM-DD", d)
		}
	}

	if s.Adults <= 0 {
		s.Adults = 1
	}
	if s.MaxResults <= 0 {
		s.MaxResults = 1
	}
	if s.Currency == "" {
		s.Currency = "EUR"
	}
	s.Currency = strings.ToUpper(s.Currency)
	if s.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative")
	}

	return nil
}
