// Package config loads the crawl data files: the city table, the category
// list and the optional rotation lists.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Default city used when the requested city is missing from the table or the
// table cannot be loaded.
const (
	DefaultCityUUID = "4a70f9e0-46ae-11e7-83ff-00155d026416"
	DefaultCityName = "Краснодар"
)

// City is one entry of the city table.
type City struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// LoadCities reads the city table. Both a bare JSON array and a
// {"results": [...]} envelope are accepted.
func LoadCities(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city table %s: %w", path, err)
	}
	var cities []City
	if err := json.Unmarshal(data, &cities); err == nil {
		return cities, nil
	}
	var envelope struct {
		Results []City `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Results == nil {
		return nil, fmt.Errorf("parse city table %s: unrecognized shape", path)
	}
	return envelope.Results, nil
}

// PickCityUUID resolves the target city by trimmed, case-insensitive exact
// name match. The second return reports whether a match was found; callers
// fall back to DefaultCityUUID otherwise.
func PickCityUUID(cityName string, cities []City) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(cityName))
	if want == "" {
		return "", false
	}
	for _, c := range cities {
		if strings.ToLower(strings.TrimSpace(c.Name)) != want {
			continue
		}
		if uuid := strings.TrimSpace(c.UUID); uuid != "" {
			return uuid, true
		}
	}
	return "", false
}

// LoadLines reads a newline-separated list, skipping blank lines and
// #-comments. Used for the category, user-agent and proxy files.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// LoadCategories reads the category URL list. An unreadable or empty file is
// an error: no categories means no work.
func LoadCategories(path string) ([]string, error) {
	lines, err := LoadLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("category list %s is empty", path)
	}
	return lines, nil
}
