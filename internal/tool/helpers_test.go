package tool

import (
	"errors"

	"toolchat/internal/domain"
)

func asToolError(err error, target **domain.ToolError) bool {
	return errors.As(err, target)
}
