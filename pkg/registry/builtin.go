package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// CalculateArgs are the arguments of the calculate tool.
// Either A, B and Op are set, or Expression holds "<a> <op> <b>"; spaces
// around a symbolic operator are optional ("22+10").
type CalculateArgs struct {
	A          float64 `mapstructure:"a"`
	B          float64 `mapstructure:"b"`
	Op         string  `mapstructure:"op"`
	Expression string  `mapstructure:"expression"`
}

// WeatherArgs are the arguments of the get_current_weather tool.
type WeatherArgs struct {
	Location string `mapstructure:"location"`
	Unit     string `mapstructure:"unit"`
}

// Weather is the mock report returned by get_current_weather.
type Weather struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Unit        string `json:"unit"`
}

// RegisterBuiltins adds the calculate and get_current_weather tools.
func RegisterBuiltins(r *Registry) {
	r.Register("calculate", Calculate)
	r.Register("get_current_weather", CurrentWeather)
}

// Calculate performs basic arithmetic: add/+, sub/-, mul/*, div//.
func Calculate(_ context.Context, args map[string]any) (any, error) {
	var in CalculateArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	if in.Expression != "" {
		parts, ok := splitExpression(in.Expression)
		if !ok {
			return nil, fmt.Errorf("expression %q: expected \"<a> <op> <b>\"", in.Expression)
		}
		var err error
		if in.A, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return nil, fmt.Errorf("expression %q: %w", in.Expression, err)
		}
		if in.B, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return nil, fmt.Errorf("expression %q: %w", in.Expression, err)
		}
		in.Op = parts[1]
	}

	switch in.Op {
	case "add", "+":
		return in.A + in.B, nil
	case "sub", "-":
		return in.A - in.B, nil
	case "mul", "*":
		return in.A * in.B, nil
	case "div", "/":
		if in.B == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return in.A / in.B, nil
	}
	return nil, fmt.Errorf("unsupported operation %q", in.Op)
}

// CurrentWeather returns canned weather data. London is always under maintenance.
func CurrentWeather(_ context.Context, args map[string]any) (any, error) {
	in := WeatherArgs{Unit: "celsius"}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	switch strings.ToLower(in.Location) {
	case "":
		return nil, fmt.Errorf("location is required")
	case "london":
		return nil, fmt.Errorf("weather service for London is under maintenance")
	case "tokyo":
		return Weather{Location: "Tokyo", Temperature: "10", Unit: "celsius"}, nil
	case "paris":
		return Weather{Location: "Paris", Temperature: "22", Unit: "celsius"}, nil
	}
	return Weather{Location: in.Location, Temperature: "72", Unit: "fahrenheit"}, nil
}

// splitExpression returns operand, operator and operand. Word operators need
// spaces; a symbol splits at its first occurrence after the left operand,
// so signs and exponents ("-2*1e-3") stay with their numbers.
func splitExpression(expr string) ([]string, bool) {
	if parts := strings.Fields(expr); len(parts) == 3 {
		return parts, true
	}

	expr = strings.TrimSpace(expr)
	for i := 1; i < len(expr); i++ {
		if !strings.ContainsRune("+-*/", rune(expr[i])) {
			continue
		}
		left := strings.TrimSpace(expr[:i])
		if left == "" || strings.ContainsAny(left[len(left)-1:], "+-*/eE") {
			continue
		}
		right := strings.TrimSpace(expr[i+1:])
		if right == "" {
			return nil, false
		}
		return []string{left, expr[i : i+1], right}, true
	}
	return nil, false
}

// decode maps loosely typed tool arguments (e.g. numbers as strings) onto out.
func decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
