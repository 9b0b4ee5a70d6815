package logio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Logger is a leveled line logger shared by the command line tools. Any
// error logged through it makes ExitCode non-zero.
type Logger struct {
	sync.Mutex
	output   io.Writer
	buf      bytes.Buffer
	exitCode int
	muted    map[string]bool
}

// New returns a logger writing to out.
func New(out io.Writer) *Logger {
	return &Logger{output: out}
}

// SetOutput replaces the output stream.
func (log *Logger) SetOutput(out io.Writer) {
	log.Lock()
	defer log.Unlock()
	log.output = out
}

// Mute drops every later message of the given level, or restores it.
func (log *Logger) Mute(level string, muted bool) {
	log.Lock()
	defer log.Unlock()
	if log.muted == nil {
		log.muted = make(map[string]bool)
	}
	log.muted[level] = muted
}

// ExitCode returns a code to pass to os.Exit: 1 after any Errorf, 2 if the
// output stream itself failed.
func (log *Logger) ExitCode() int {
	log.Lock()
	defer log.Unlock()
	return log.exitCode
}

// Leveledf returns a printf-style function logging at the given level, fit
// for use as a trace hook.
func (log *Logger) Leveledf(level string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) { log.Printf(level, mess, args...) }
}

// ErrorIf logs any non-nil error through Errorf.
func (log *Logger) ErrorIf(err error) {
	if err != nil {
		log.Errorf("%v", err)
	}
}

// Errorf is like Printf("ERROR", ...) but also makes ExitCode non-zero.
func (log *Logger) Errorf(mess string, args ...interface{}) {
	log.Lock()
	defer log.Unlock()
	if log.exitCode == 0 {
		log.exitCode = 1
	}
	if err := log.printf("ERROR", mess, args...); err != nil {
		log.exitCode = 2
	}
}

// Print is Printf without formatting: mess is written verbatim.
func (log *Logger) Print(level, mess string) {
	log.Lock()
	defer log.Unlock()
	if log.muted[level] {
		return
	}
	if err := log.write(level, mess); err != nil {
		log.exitCode = 2
	}
}

// Printf prints a line like "level: message...\n".
func (log *Logger) Printf(level, mess string, args ...interface{}) {
	log.Lock()
	defer log.Unlock()
	if log.muted[level] {
		return
	}
	if err := log.printf(level, mess, args...); err != nil {
		log.exitCode = 2
	}
}

func (log *Logger) printf(level, mess string, args ...interface{}) error {
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	return log.write(level, mess)
}

func (log *Logger) write(level, mess string) error {
	if level != "" {
		log.buf.WriteString(level)
		log.buf.WriteString(": ")
	}
	log.buf.WriteString(mess)
	if b := log.buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		log.buf.WriteByte('\n')
	}
	_, err := log.buf.WriteTo(log.output)
	log.buf.Reset()
	return err
}
