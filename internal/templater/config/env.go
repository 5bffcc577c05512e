// Чтение конфигурации из переменных окружения по тегам env.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// lookupEnv возвращает непустое значение переменной окружения.
func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// envConfig заполняет поля структуры s значениями переменных, имена которых
// лежат в теге tag. Некорректные значения пропускаются с предупреждением, поле
// остается нулевым и получает значение по умолчанию в Load.
func envConfig(tag string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typ := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := typ.Field(i)
		name := field.Tag.Get(tag)
		if name == "" {
			continue
		}
		raw, ok := lookupEnv(name)
		if !ok {
			continue
		}

		if err := setField(v.Field(i), raw); err != nil {
			slog.Warn("Skip config value", "env", name, "err", err)
			continue
		}

		logValue := raw
		if isSecret(field.Name) {
			logValue = maskSecret(raw)
		}
		slog.Info("Set config value",
			slog.String("key", typ.Name()+"."+field.Name),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)
	}
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%q is not an integer", raw)
		}
		f.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", raw)
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}

func isSecret(fieldName string) bool {
	name := strings.ToLower(fieldName)
	for _, s := range []string{"pass", "secret", "token"} {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func maskSecret(value string) string {
	runes := []rune(value)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
