package audit

import (
	"fmt"
	"strconv"
)

// Event 一条管理操作审计事件，贯穿 Redis Stream → Kafka → admin_logs 全链路。
// EventID 为全链路幂等键。
type Event struct {
	EventID    string `json:"event_id"`
	AdminID    uint   `json:"admin_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	Details    string `json:"details"`
}

// Validate 最小字段校验，防止消费端处理脏消息。
func (e Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.AdminID == 0 {
		return fmt.Errorf("admin_id is required")
	}
	if e.Action == "" {
		return fmt.Errorf("action is required")
	}
	if e.EntityType == "" {
		return fmt.Errorf("entity_type is required")
	}
	if e.EntityID == 0 {
		return fmt.Errorf("entity_id is required")
	}
	return nil
}

// StreamValues 转成 Redis Stream 的扁平字段。
func (e Event) StreamValues() map[string]any {
	return map[string]any{
		"event_id":    e.EventID,
		"admin_id":    strconv.FormatUint(uint64(e.AdminID), 10),
		"action":      e.Action,
		"entity_type": e.EntityType,
		"entity_id":   strconv.FormatUint(uint64(e.EntityID), 10),
		"details":     e.Details,
	}
}

// ParseStreamValues 从 Stream 字段还原事件并校验。
func ParseStreamValues(values map[string]any) (Event, error) {
	eventID, err := getStreamString(values, "event_id")
	if err != nil {
		return Event{}, err
	}
	adminStr, err := getStreamString(values, "admin_id")
	if err != nil {
		return Event{}, err
	}
	action, err := getStreamString(values, "action")
	if err != nil {
		return Event{}, err
	}
	entityType, err := getStreamString(values, "entity_type")
	if err != nil {
		return Event{}, err
	}
	entityStr, err := getStreamString(values, "entity_id")
	if err != nil {
		return Event{}, err
	}
	// details 允许为空
	details, _ := getStreamString(values, "details")

	adminID, err := strconv.ParseUint(adminStr, 10, 32)
	if err != nil {
		return Event{}, fmt.Errorf("invalid admin_id %q", adminStr)
	}
	entityID, err := strconv.ParseUint(entityStr, 10, 32)
	if err != nil {
		return Event{}, fmt.Errorf("invalid entity_id %q", entityStr)
	}

	e := Event{
		EventID:    eventID,
		AdminID:    uint(adminID),
		Action:     action,
		EntityType: entityType,
		EntityID:   uint(entityID),
		Details:    details,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

func getStreamString(values map[string]any, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %s", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %s: %T", key, v)
	}
}
