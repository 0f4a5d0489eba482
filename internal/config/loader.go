package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LoadSettings reads settings from environment variables, applies defaults
// for unset values and validates the result.
func LoadSettings() (*Settings, error) {
	s := &Settings{}

	if err := loadStruct(reflect.ValueOf(s).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if s.Logging.File == "" {
		path, err := DefaultLogFile()
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		s.Logging.File = path
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return s, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the settings are usable and reports every failure.
func (s *Settings) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("CSVEDIT_LOG_LEVEL (%q) must be one of: debug, info, warn, error", s.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(s.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("CSVEDIT_LOG_FORMAT (%q) must be one of: text, json", s.Logging.Format))
	}

	if s.Grid.DefaultRows < 0 {
		errs = append(errs, "CSVEDIT_DEFAULT_ROWS must be non-negative")
	}
	if s.Grid.DefaultCols <= 0 {
		errs = append(errs, "CSVEDIT_DEFAULT_COLS must be positive")
	}
	if s.Grid.MaxFileSize < 0 {
		errs = append(errs, "CSVEDIT_MAX_FILE_SIZE must be non-negative")
	}

	if s.Database.ExportTimeout <= 0 {
		errs = append(errs, "CSVEDIT_EXPORT_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ExportEnabled reports whether a database URL is configured.
func (s *Settings) ExportEnabled() bool {
	return s.Database.URL != ""
}

// String returns a representation safe for logging; the database URL is masked.
func (s *Settings) String() string {
	db := "none"
	if s.Database.URL != "" {
		db = "[MASKED]"
	}
	var b strings.Builder
	b.WriteString("Settings{")
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q, File: %q}, ",
		s.Logging.Level, s.Logging.Format, s.Logging.File))
	b.WriteString(fmt.Sprintf("Grid: {DefaultRows: %d, DefaultCols: %d, MaxFileSize: %d}, ",
		s.Grid.DefaultRows, s.Grid.DefaultCols, s.Grid.MaxFileSize))
	b.WriteString(fmt.Sprintf("Database: {URL: %s, ExportTimeout: %s}",
		db, s.Database.ExportTimeout))
	b.WriteString("}")
	return b.String()
}
