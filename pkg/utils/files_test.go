package utils

import "testing"

func TestOutputPath(t *testing.T) {
	cases := []struct {
		input, explicit, want string
	}{
		{"main.saturn", "", "main.lua"},
		{"src/app.v2/main.saturn", "", "src/app.v2/main.lua"},
		{"noext", "", "noext.lua"},
		{"main.saturn", "out/x.lua", "out/x.lua"},
	}
	for _, tc := range cases {
		if got := OutputPath(tc.input, tc.explicit); got != tc.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.input, tc.explicit, got, tc.want)
		}
	}
}
