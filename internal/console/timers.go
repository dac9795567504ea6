package console

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/kvconf"
	"github.com/nerrad567/gray-node-agent/internal/schedule"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// timerFeature drives the schedule registry from the console and
// persists command timers through the task store.
type timerFeature struct{}

// Timers creates the scheduler feature.
func Timers() Feature { return &timerFeature{} }

func (f *timerFeature) Name() string { return "timer" }

func (f *timerFeature) Begin(c *Console) error {
	return c.Dispatcher().Register("timer", f.handle(c),
		"timer list, timer add, timer remove, timer hold, timer resume, timer save, timer load",
		"Scheduler")
}

func (f *timerFeature) Loop(c *Console, now time.Time) {}

func (f *timerFeature) Info(c *Console) {
	c.Printf("timers: %d registered\n", c.Deps().Registry.Len())
}

func (f *timerFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		if tok.Item(0) != "timer" {
			return false
		}

		switch tok.Item(1) {
		case "list":
			f.list(c)
		case "add":
			f.add(c, tok)
		case "remove":
			if err := c.Deps().Registry.Remove(int(tok.Int(2, -1))); err != nil {
				c.Printf("timer remove: %v\n", err)
			}
		case "hold":
			f.withTimer(c, "hold", tok, func(t *schedule.Timer) { t.Hold() })
		case "resume":
			f.withTimer(c, "resume", tok, func(t *schedule.Timer) { t.Resume() })
		case "save":
			f.save(c)
		case "load":
			f.load(c, quiet)
		default:
			c.Printf("usage: timer {list|add {periodic|once} <ms> <command>|add cron \"<expr>\" <command>|remove <id>|hold <id>|resume <id>|save|load}\n")
		}
		return true
	}
}

func (f *timerFeature) withTimer(c *Console, verb string, tok *token.Tokenizer, fn func(*schedule.Timer)) {
	t, err := c.Deps().Registry.Get(int(tok.Int(2, -1)))
	if err != nil {
		c.Printf("timer %s: %v\n", verb, err)
		return
	}
	fn(t)
}

func (f *timerFeature) list(c *Console) {
	t := NewTable("ID", "KIND", "SCHEDULE", "STATE", "COMMAND")
	for _, tm := range c.Deps().Registry.Timers() {
		kind, sched := "periodic", fmt.Sprintf("%dms", tm.Period())
		switch {
		case tm.IsCron():
			kind, sched = "cron", tm.CronExpr()
		case tm.Mode() == schedule.Once:
			kind = "once"
		}
		state := "held"
		if tm.Running() {
			state = "running"
		}
		t.Row(fmt.Sprintf("%d", tm.ID()), kind, sched, state, tm.Command())
	}
	t.Print(c.Stream())
}

func (f *timerFeature) add(c *Console, tok *token.Tokenizer) {
	kind := tok.Item(2)
	command := tok.StringAfter(4)
	if command == "" {
		c.Printf("timer add: command required\n")
		return
	}

	var tm *schedule.Timer
	switch kind {
	case "periodic":
		tm = schedule.NewPeriodic(int64(tok.Int(3, 0)), command, nil)
	case "once":
		tm = schedule.NewOnce(int64(tok.Int(3, 0)), command, nil)
	case "cron":
		var err error
		if tm, err = schedule.NewCron(tok.Item(3), command, nil); err != nil {
			c.Printf("timer add: %v\n", err)
			return
		}
	default:
		c.Printf("timer add: unknown kind %q\n", kind)
		return
	}
	if !tm.IsCron() && tm.Period() <= 0 {
		c.Printf("timer add: period must be positive\n")
		return
	}

	c.Deps().Registry.Add(tm)
	c.Printf("timer %d added\n", tm.ID())
}

// save replaces the persisted task set with the registry's command
// timers and marks the timer env record so they reload at boot.
func (f *timerFeature) save(c *Console) {
	store := c.Deps().Tasks
	if store == nil {
		c.Printf("timer save: no task store\n")
		return
	}

	old, err := store.ListTasks()
	if err != nil {
		c.Printf("timer save: %v\n", err)
		return
	}
	for _, t := range old {
		if err := store.DeleteTask(t.ID); err != nil {
			c.Printf("timer save: %v\n", err)
			return
		}
	}

	var saved int
	for _, tm := range c.Deps().Registry.Timers() {
		if tm.Command() == "" {
			continue
		}
		task := &schedule.Task{
			Kind:     schedule.TaskPeriodic,
			PeriodMS: tm.Period(),
			Expr:     tm.CronExpr(),
			Command:  tm.Command(),
		}
		switch {
		case tm.IsCron():
			task.Kind = schedule.TaskCron
		case tm.Mode() == schedule.Once:
			task.Kind = schedule.TaskOnce
		}
		if err := store.CreateTask(task); err != nil {
			c.Printf("timer save: %v\n", err)
			return
		}
		tm.SetTaskID(task.ID)
		saved++
	}

	m := kvconf.New()
	m.AddInt("autoload", 1)
	m.AddInt("count", int32(saved))
	if err := c.Deps().Env.Save(envstore.NameTimer, m.String()); err != nil {
		c.Printf("timer save: %v\n", err)
		return
	}
	c.Printf("%d timers saved\n", saved)
}

// load materialises persisted tasks into the registry. Already-loaded
// tasks (matched by task id) are skipped so load is idempotent.
func (f *timerFeature) load(c *Console, quiet bool) {
	store := c.Deps().Tasks
	if store == nil {
		if !quiet {
			c.Printf("timer load: no task store\n")
		}
		return
	}

	tasks, err := store.ListTasks()
	if err != nil {
		c.Printf("timer load: %v\n", err)
		return
	}

	present := make(map[string]bool)
	for _, tm := range c.Deps().Registry.Timers() {
		if tm.TaskID() != "" {
			present[tm.TaskID()] = true
		}
	}

	var loaded int
	for _, task := range tasks {
		if present[task.ID] {
			continue
		}
		tm, err := task.Timer()
		if err != nil {
			c.Printf("timer load: %s: %v\n", task.ID, err)
			continue
		}
		c.Deps().Registry.Add(tm)
		loaded++
	}
	if !quiet {
		c.Printf("%d timers loaded\n", loaded)
	}
}
