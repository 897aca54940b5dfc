package logging

import "time"

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Operation names the toolkit operation, e.g. ContainsCounter
func Operation(op string) Field {
	return String("operation", op)
}

// Command names the CLI subcommand
func Command(name string) Field {
	return String("command", name)
}

// Layer names the dataset an operation reads or writes
func Layer(name string) Field {
	return String("layer", name)
}

// Mode names the network edge-generation mode
func Mode(name string) Field {
	return String("mode", name)
}

// Column names an attribute column
func Column(name string) Field {
	return String("field", name)
}

// Record is a feature position within its layer
func Record(i int) Field {
	return Int("record", i)
}

func Count(n int) Field {
	return Int("count", n)
}

func Groups(n int) Field {
	return Int("groups", n)
}

func Leaves(n int) Field {
	return Int("leaves", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
