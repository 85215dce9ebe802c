package service

import (
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// requireUUID читает обязательное поле-идентификатор.
func requireUUID(s *structpb.Struct, name string) (uuid.UUID, error) {
	raw := s.GetFields()[name].GetStringValue()
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s must be a uuid", name)
	}
	return id, nil
}

// optionalUUID — пустое поле даёт uuid.Nil без ошибки.
func optionalUUID(s *structpb.Struct, name string) (uuid.UUID, error) {
	if s.GetFields()[name].GetStringValue() == "" {
		return uuid.Nil, nil
	}
	return requireUUID(s, name)
}

func requireNumber(s *structpb.Struct, name string) (float64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	return v.GetNumberValue(), nil
}

// intOr возвращает целое поле или def, если поле не задано.
func intOr(s *structpb.Struct, name string, def int) int {
	v, ok := s.GetFields()[name]
	if !ok {
		return def
	}
	n := v.GetNumberValue()
	if math.IsNaN(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return def
	}
	return int(n)
}

func stringList(v *structpb.Value) []string {
	list := v.GetListValue().GetValues()
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// newStruct собирает ответ. Ошибка означает неподдерживаемый тип в презентере.
func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func timeString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeString(*t)
}

func optUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func uuidList(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
