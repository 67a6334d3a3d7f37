package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"saturnus/pkg/macro"
)

// Duration is a time.Duration written as a string ("5s") in config files.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"5s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Options struct {
	IndentWidth  int      `json:"indent_width" desc:"Spaces per indentation level"`
	UseTabs      bool     `json:"use_tabs" desc:"Indent with tabs, ignoring indent_width"`
	NoStd        bool     `json:"no_std" desc:"Leave the std module out of the prelude"`
	MacroTimeout Duration `json:"macro_timeout" desc:"Upper bound for a single macro invocation, zero for none"`

	// Sink receives macro results. Nil discards them.
	Sink macro.ResultSink `json:"-"`
}

const DefaultIndentWidth = 2

func DefaultOptions() *Options {
	return &Options{
		IndentWidth:  DefaultIndentWidth,
		MacroTimeout: Duration(5 * time.Second),
	}
}

// LoadOptions reads a JSON config file over the defaults.
func LoadOptions(path string) (*Options, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o := DefaultOptions()
	if err := json.Unmarshal(bs, o); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return o, nil
}

func (o *Options) Validate() error {
	if o.IndentWidth < 0 {
		return fmt.Errorf("indent_width must not be negative, got %d", o.IndentWidth)
	}
	if o.MacroTimeout < 0 {
		return fmt.Errorf("macro_timeout must not be negative, got %s", time.Duration(o.MacroTimeout))
	}
	return nil
}

// IndentUnit is the text written once per indentation level.
func (o *Options) IndentUnit() string {
	if o.UseTabs {
		return "\t"
	}
	return strings.Repeat(" ", o.IndentWidth)
}
