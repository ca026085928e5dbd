package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	// foreign_keys is per connection; the DSN applies it to every pooled one.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const eventColumns = `id, title, event_date, event_time, category, visibility, assignee_id, assignee_name,
	is_recurring, frequency, interval_value, days_of_week, end_date,
	reminder_enabled, reminder_date, reminder_time, reminder_days_before, notes`

func (r *SQLiteRepository) CreateEvent(ctx context.Context, in model.Event) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := mustTime(r.now())
		args := append(eventArgs(in), now, now)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (`+eventColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
			return err
		}
		return replaceAttendees(ctx, tx, in.ID, in.Attendees)
	})
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, err
	}
	attendees, err := r.attendeesByEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	ev.Attendees = attendees[id]
	return ev, nil
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, in model.Event) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		args := eventArgs(in)[1:]
		args = append(args, mustTime(r.now()), in.ID)
		res, err := tx.ExecContext(ctx, `
			UPDATE events
			SET title = ?, event_date = ?, event_time = ?, category = ?, visibility = ?, assignee_id = ?, assignee_name = ?,
				is_recurring = ?, frequency = ?, interval_value = ?, days_of_week = ?, end_date = ?,
				reminder_enabled = ?, reminder_date = ?, reminder_time = ?, reminder_days_before = ?, notes = ?,
				updated_at = ?
			WHERE id = ?`, args...)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		return replaceAttendees(ctx, tx, in.ID, in.Attendees)
	})
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, filter EventListFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.RecurringOnly {
		clauses = append(clauses, "is_recurring = 1")
	}
	if filter.ReminderOnly {
		clauses = append(clauses, "reminder_enabled = 1")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY event_date ASC, event_time ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	out, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	attendees, err := r.attendeesByEvent(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Attendees = attendees[out[i].ID]
	}
	return out, nil
}

// Events returns every stored event; it lets the repository feed the
// reminder runner directly.
func (r *SQLiteRepository) Events(ctx context.Context) ([]model.Event, error) {
	return r.ListEvents(ctx, EventListFilter{})
}

func (r *SQLiteRepository) Tasks(ctx context.Context) ([]model.Task, error) {
	return r.ListTasks(ctx, TaskListFilter{})
}

func (r *SQLiteRepository) Goals(ctx context.Context) ([]model.Goal, error) {
	return r.ListGoals(ctx, GoalListFilter{})
}

func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		ev, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// attendeesByEvent loads attendees for one event, or for all when id is empty.
func (r *SQLiteRepository) attendeesByEvent(ctx context.Context, id string) (map[string][]string, error) {
	query := `SELECT event_id, member_id FROM event_attendees`
	args := make([]any, 0, 1)
	if id != "" {
		query += ` WHERE event_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY event_id, position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var eventID, memberID string
		if err := rows.Scan(&eventID, &memberID); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], memberID)
	}
	return out, rows.Err()
}

func replaceAttendees(ctx context.Context, tx *sql.Tx, eventID string, attendees []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	for i, member := range attendees {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO event_attendees (event_id, member_id, position) VALUES (?, ?, ?)`,
			eventID, member, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, due_date, status, priority, assignee_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, nullDate(in.DueDate), string(in.Status), string(in.Priority), in.AssigneeID, mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, due_date, status, priority, assignee_id
		FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, due_date = ?, status = ?, priority = ?, assignee_id = ?
		WHERE id = ?`,
		in.Title, nullDate(in.DueDate), string(in.Status), string(in.Priority), in.AssigneeID, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT id, title, due_date, status, priority, assignee_id FROM tasks`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "due_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "due_date <= ?")
		args = append(args, filter.To.String())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY due_date ASC, created_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, in model.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, title, deadline, status, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, nullDate(in.Deadline), string(in.Status), in.Progress, mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, deadline, status, progress FROM goals WHERE id = ?`, id)
	goal, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Goal{}, ErrNotFound
		}
		return model.Goal{}, err
	}
	return goal, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, in model.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, deadline = ?, status = ?, progress = ? WHERE id = ?`,
		in.Title, nullDate(in.Deadline), string(in.Status), in.Progress, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, filter GoalListFilter) ([]model.Goal, error) {
	query := `SELECT id, title, deadline, status, progress FROM goals`
	args := make([]any, 0, 3)
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY deadline ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Goal, 0)
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, goal)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func eventArgs(in model.Event) []any {
	var (
		frequency  any
		interval   = 1
		daysOfWeek any
		endDate    any
	)
	if p := in.Recurrence; p != nil {
		frequency = string(p.Frequency)
		interval = p.Interval
		daysOfWeek = encodeWeekdays(p.DaysOfWeek)
		endDate = nullDate(p.EndDate)
	}
	var daysBefore any
	if in.Reminder.DaysBefore != nil {
		daysBefore = *in.Reminder.DaysBefore
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityShared
	}
	return []any{
		in.ID, in.Title, in.Date.String(), in.Time, string(in.Category), string(visibility), in.AssigneeID, in.AssigneeName,
		boolInt(in.IsRecurring), frequency, interval, daysOfWeek, endDate,
		boolInt(in.Reminder.Enabled), nullDate(in.Reminder.Date), in.Reminder.Time, daysBefore, in.Notes,
	}
}

func encodeWeekdays(days []time.Weekday) any {
	if days == nil {
		return nil
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

// decodeWeekdays keeps unparsable tokens as out-of-range weekdays so the
// pattern reads back as malformed instead of silently changing meaning.
func decodeWeekdays(v sql.NullString) []time.Weekday {
	if !v.Valid {
		return nil
	}
	out := make([]time.Weekday, 0)
	for _, token := range strings.Split(v.String, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			n = -1
		}
		out = append(out, time.Weekday(n))
	}
	return out
}

func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// parseStoredDate is lenient: a bad value yields the zero Date so one broken
// row degrades to "does not participate" instead of failing the whole list.
// ok is false only when a non-empty value could not be parsed; callers use it
// to tell a missing date from an unreadable one.
func parseStoredDate(v sql.NullString, column, id string) (model.Date, bool) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return model.Date{}, true
	}
	d, err := model.ParseDate(v.String)
	if err != nil {
		applog.Warn("stored date is malformed", err, "column", column, "id", id)
		return model.Date{}, false
	}
	return d, true
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	clause := ""
	if limit > 0 {
		clause += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			clause += " LIMIT -1"
		}
		clause += " OFFSET ?"
		*args = append(*args, offset)
	}
	return clause
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (model.Event, error) {
	var (
		out                        model.Event
		eventDate                  sql.NullString
		category, visibility       string
		recurring, reminderEnabled int
		frequency, daysOfWeek      sql.NullString
		endDate, reminderDate      sql.NullString
		interval                   int
		daysBefore                 sql.NullInt64
	)
	if err := s.Scan(
		&out.ID, &out.Title, &eventDate, &out.Time, &category, &visibility, &out.AssigneeID, &out.AssigneeName,
		&recurring, &frequency, &interval, &daysOfWeek, &endDate,
		&reminderEnabled, &reminderDate, &out.Reminder.Time, &daysBefore, &out.Notes,
	); err != nil {
		return model.Event{}, err
	}
	out.Date, _ = parseStoredDate(eventDate, "event_date", out.ID)
	out.Category = model.Category(category)
	out.Visibility = model.Visibility(visibility)
	out.IsRecurring = recurring == 1
	if frequency.Valid {
		end, ok := parseStoredDate(endDate, "end_date", out.ID)
		out.Recurrence = &model.RecurrencePattern{
			Frequency:  model.Frequency(frequency.String),
			Interval:   interval,
			DaysOfWeek: decodeWeekdays(daysOfWeek),
			EndDate:    end,
			Malformed:  !ok,
		}
	}
	out.Reminder.Enabled = reminderEnabled == 1
	var ok bool
	out.Reminder.Date, ok = parseStoredDate(reminderDate, "reminder_date", out.ID)
	out.Reminder.Malformed = !ok
	if daysBefore.Valid {
		n := int(daysBefore.Int64)
		out.Reminder.DaysBefore = &n
	}
	return out, nil
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due sql.NullString
	var status, priority string
	if err := s.Scan(&out.ID, &out.Title, &due, &status, &priority, &out.AssigneeID); err != nil {
		return model.Task{}, err
	}
	out.DueDate, _ = parseStoredDate(due, "due_date", out.ID)
	out.Status = model.TaskStatus(status)
	out.Priority = model.Priority(priority)
	return out, nil
}

func scanGoal(s scanner) (model.Goal, error) {
	var out model.Goal
	var deadline sql.NullString
	var status string
	if err := s.Scan(&out.ID, &out.Title, &deadline, &status, &out.Progress); err != nil {
		return model.Goal{}, err
	}
	out.Deadline, _ = parseStoredDate(deadline, "deadline", out.ID)
	out.Status = model.GoalStatus(status)
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
