package cmd

import "fmt"

const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitInternal    = 2
	ExitInterrupted = 130
)

// ExitError 携带进程退出码。ErrCode 非空时，机器格式下会额外输出一条 error 事件。
type ExitError struct {
	Code    int
	Msg     string
	ErrCode string
}

func (e *ExitError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Msg
}
