package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/session"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the tutor on plain stdin/stdout",
	Long: `Run the tutoring conversation without the full-screen interface.

Each line you type is one message. Useful over slow connections, with
screen readers, or for scripting a session from a file.`,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := openServices(ctx, cmd, serviceOpts{WithEvaluator: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	out := &lockedWriter{w: cmd.OutOrStdout()}
	notes := session.NewChanNotifier(noteBufferSize)
	machine := session.NewMachine(session.Options{
		Repo:      svc.Repo,
		Evaluator: svc.Evaluator,
		Catalog:   svc.Catalog,
		Notifier:  notes,
		Logger:    svc.Logger,
	})

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for m := range notes.C() {
			printMessage(out, m)
		}
	}()

	printMessage(out, machine.Greeting())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		msgs, err := machine.Submit(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			break
		}
		for _, m := range msgs {
			printMessage(out, m)
		}
	}

	// Input ended; say what the tutor was about to say.
	for _, m := range machine.Drain() {
		printMessage(out, m)
	}
	machine.Close()
	notes.Close()
	<-printed
	return scanner.Err()
}

// noteBufferSize bounds messages produced between two lines of input.
const noteBufferSize = 32

func printMessage(w io.Writer, m session.Message) {
	switch m.Kind {
	case session.KindCelebrate:
		fmt.Fprintf(w, "*** %s ***\n", m.Text)
	case session.KindIntegrity:
		fmt.Fprintf(w, "[!] %s\n", m.Text)
	case session.KindError:
		fmt.Fprintf(w, "[error] %s\n", m.Text)
	default:
		prefix := "Lexi: "
		if m.Correct != nil {
			if *m.Correct {
				prefix = "Lexi: ✓ "
			} else {
				prefix = "Lexi: ✗ "
			}
		}
		fmt.Fprintln(w, prefix+m.Text)
	}
}

// lockedWriter serializes writes from the input loop and the notifier.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
