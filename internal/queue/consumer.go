package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// ActivityLog appends one line per event to <Dir>/activity.log.
type ActivityLog struct {
    Dir string
    mu  sync.Mutex
}

// Append formats the event body received on queue and writes it.
func (a *ActivityLog) Append(queue string, body []byte) error {
    line, err := FormatLine(queue, body)
    if err != nil {
        return err
    }
    a.mu.Lock()
    defer a.mu.Unlock()
    dir := a.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "activity.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders a single human-friendly, newline-terminated line.
func FormatLine(queue string, body []byte) (string, error) {
    switch queue {
    case ReservationConfirmedQueue:
        var ev ReservationConfirmedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Reservation confirmed | reservation_id=%d | listing_id=%d | listing=%q | user_id=%d | user=%q | dates=%s..%s | nights=%d | total=%d\n",
            ev.ConfirmedAt, ev.ReservationID, ev.ListingID, ev.ListingTitle, ev.UserID, ev.Username,
            ev.StartDate, ev.EndDate, ev.Nights, ev.TotalPrice), nil
    case ReservationCancelledQueue:
        var ev ReservationCancelledEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Reservation cancelled | reservation_id=%d | listing_id=%d | user_id=%d | by=%d\n",
            ev.CancelledAt, ev.ReservationID, ev.ListingID, ev.UserID, ev.CancelledBy), nil
    case ReviewSubmittedQueue:
        var ev ReviewSubmittedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Review submitted | review_id=%d | listing_id=%d | user_id=%d | user=%q | rating=%d | title=%q\n",
            ev.SubmittedAt, ev.ReviewID, ev.ListingID, ev.UserID, ev.Username, ev.Rating, ev.Title), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}

// Consumer listens on every queue in Queues and records deliveries.
type Consumer struct {
    URL string
    Log *zap.Logger
    Out *ActivityLog
}

// Run connects to RabbitMQ and keeps consuming until ctx is cancelled,
// reconnecting with exponential backoff.  Messages that cannot be handled
// are rejected without requeue so a bad payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("activity consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn("activity consumer: consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

type delivery struct {
    queue string
    amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("activity consumer: set QoS failed", zap.Error(err))
    }

    merged := make(chan delivery)
    var wg sync.WaitGroup
    for _, name := range Queues {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        wg.Add(1)
        go func(name string, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for d := range msgs {
                select {
                case merged <- delivery{queue: name, Delivery: d}:
                case <-ctx.Done():
                    return
                }
            }
        }(name, msgs)
    }
    go func() { wg.Wait(); close(merged) }()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-merged:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Out.Append(d.queue, d.Body); err != nil {
                c.Log.Error("activity consumer: handle message failed", zap.String("queue", d.queue), zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
