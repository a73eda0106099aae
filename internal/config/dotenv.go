package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type envPair struct {
	key, value string
}

// loadDotEnv copies KEY=VALUE pairs from a dotenv file into the process
// environment and reports how many were set. A missing file is not an error.
// Variables that already have a value are left alone.
func loadDotEnv(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	pairs, err := parseDotEnv(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	set := 0
	for _, p := range pairs {
		if os.Getenv(p.key) != "" {
			continue
		}
		if err := os.Setenv(p.key, p.value); err != nil {
			return set, err
		}
		set++
	}
	return set, nil
}

// parseDotEnv reads blank lines, # comments, optional "export " prefixes,
// quoted values and trailing " #" comments on unquoted values.
func parseDotEnv(r io.Reader) ([]envPair, error) {
	var pairs []envPair
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" || strings.ContainsAny(k, " \t") {
			return nil, fmt.Errorf("line %d: want KEY=VALUE", n)
		}
		pairs = append(pairs, envPair{key: k, value: dotEnvValue(strings.TrimSpace(v))})
	}
	return pairs, sc.Err()
}

func dotEnvValue(v string) string {
	if len(v) >= 2 {
		switch q := v[0]; {
		case q == '"' && v[len(v)-1] == '"':
			return strings.ReplaceAll(v[1:len(v)-1], `\n`, "\n")
		case q == '\'' && v[len(v)-1] == '\'':
			return v[1 : len(v)-1]
		}
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
