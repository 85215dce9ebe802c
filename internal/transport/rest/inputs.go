package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// inputs — какие параметры пути и query переносятся в поля запроса.
type inputs struct {
	path    []string
	numbers []string
}

func params(names ...string) *inputs {
	return &inputs{path: names}
}

// query добавляет числовые query-параметры.
func (in *inputs) query(names ...string) *inputs {
	in.numbers = append(in.numbers, names...)
	return in
}

func (in *inputs) apply(c *fiber.Ctx, fields map[string]any) error {
	if in == nil {
		return nil
	}
	for _, name := range in.path {
		fields[name] = c.Params(name)
	}
	for _, name := range in.numbers {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
		}
		fields[name] = v
	}
	return nil
}
