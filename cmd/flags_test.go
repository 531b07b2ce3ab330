package cmd

import "testing"

func TestSourceOverrideFlags(t *testing.T) {
	for _, c := range []struct {
		name  string
		flags []string
	}{
		{"update", []string{"source-url", "source-file", "dry-run", "force"}},
		{"validate", []string{"source-url", "source-file"}},
	} {
		cmd, _, err := rootCmd.Find([]string{c.name})
		if err != nil {
			t.Fatalf("finding %s: %v", c.name, err)
		}
		for _, flag := range c.flags {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s is missing --%s", c.name, flag)
			}
		}
	}
}
