package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigure(t *testing.T) {
	type tcase struct {
		cfg      Config
		logDebug bool
		want     string
		dontWant string
	}

	fn := func(tc tcase) func(*testing.T) {
		return func(t *testing.T) {
			var buf bytes.Buffer
			tc.cfg.Output = &buf
			Configure(tc.cfg)
			defer Configure(Config{Level: "info"})

			if tc.logDebug {
				Debugf("probe %d", 1)
			} else {
				Infof("probe %d", 1)
			}

			got := buf.String()
			if tc.want != "" && !strings.Contains(got, tc.want) {
				t.Errorf("output %q, expected it to contain %q", got, tc.want)
			}
			if tc.dontWant != "" && strings.Contains(got, tc.dontWant) {
				t.Errorf("output %q, expected it not to contain %q", got, tc.dontWant)
			}
		}
	}

	tests := map[string]tcase{
		"info": {
			cfg:  Config{Level: "info"},
			want: "probe 1",
		},
		"debug filtered": {
			cfg:      Config{Level: "info"},
			logDebug: true,
			dontWant: "probe 1",
		},
		"debug enabled": {
			cfg:      Config{Level: "debug"},
			logDebug: true,
			want:     "[DEBUG]",
		},
		"bad level falls back to info": {
			cfg:  Config{Level: "chatty"},
			want: "[INFO]",
		},
		"no colour codes": {
			cfg:      Config{Level: "info"},
			dontWant: "\x1b[",
		},
	}

	for name, tc := range tests {
		t.Run(name, fn(tc))
	}
}
