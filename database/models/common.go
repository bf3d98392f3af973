package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LocalTime 以 `2006-01-02 15:04:05` 格式序列化的时间字段
type LocalTime time.Time

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(t).Format("2006-01-02 15:04:05"))), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = LocalTime(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		return err
	}
	*t = LocalTime(parsed)
	return nil
}

func (t LocalTime) Value() (driver.Value, error) {
	return time.Time(t), nil
}

func (t *LocalTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*t = LocalTime(v)
		return nil
	case []byte:
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05", string(v), time.Local)
		if err != nil {
			return err
		}
		*t = LocalTime(parsed)
		return nil
	case string:
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05", v, time.Local)
		if err != nil {
			return err
		}
		*t = LocalTime(parsed)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalTime", value)
	}
}

func (t LocalTime) Time() time.Time { return time.Time(t) }

// StringArray 以 JSON 数组落库的字符串列表
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(a))
}

// Contains 判断列表是否包含指定项
func (a StringArray) Contains(s string) bool {
	for _, item := range a {
		if item == s {
			return true
		}
	}
	return false
}
