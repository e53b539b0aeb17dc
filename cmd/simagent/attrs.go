package main

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

func attrFloat(attrs map[string]string, key string) (float64, error) {
	raw, ok := attrs[key]
	if !ok {
		return 0, errors.Errorf("simagent: missing required --attr %s", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "simagent: --attr %s", key)
	}
	return v, nil
}

func attrDuration(attrs map[string]string, key string) (time.Duration, error) {
	raw, ok := attrs[key]
	if !ok {
		return 0, errors.Errorf("simagent: missing required --attr %s", key)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "simagent: --attr %s", key)
	}
	return d, nil
}
