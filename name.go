// Signal naming for ReactiveGo
// 信号命名，仅用于诊断输出，由环境变量开关，永远不影响语义
package reactivego

import (
	"fmt"
	"os"
)

// DebugSignalNamesEnv 开启信号命名的环境变量
const DebugSignalNamesEnv = "REACTIVEGO_DEBUG_SIGNAL_NAMES"

// debugSignalNames 进程启动时读取一次
var debugSignalNames = os.Getenv(DebugSignalNamesEnv) != ""

// Name 返回信号的诊断名称
func (s *Signal) Name() string {
	return s.name
}

// NameWithFormat 设置信号的诊断名称并返回自身以便链式调用。
// 未设置环境变量时是无操作，格式化开销也随之省掉
func (s *Signal) NameWithFormat(format string, args ...interface{}) *Signal {
	if debugSignalNames {
		s.name = fmt.Sprintf(format, args...)
	}
	return s
}

// String 信号的字符串表示
func (s *Signal) String() string {
	if s.name == "" {
		return fmt.Sprintf("<Signal: %p>", s)
	}
	return fmt.Sprintf("<Signal: %p> name: %s", s, s.name)
}
