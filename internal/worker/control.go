package worker

import (
	"context"
	"errors"

	"github.com/shaiso/Surfer/internal/mq"
	"github.com/shaiso/Surfer/internal/store"
)

// HandleControl обрабатывает команды из очереди tasks.control.
//
// Команда для неизвестной или уже завершённой задачи подтверждается
// без ошибки; ошибка хранилища возвращает сообщение в очередь.
func (w *Worker) HandleControl(ctx context.Context, d *mq.Delivery) error {
	switch d.Message.Type {
	case mq.MessageTypeTaskStop:
		p, err := mq.ParsePayload[mq.StopPayload](&d.Message)
		if err != nil {
			w.logger.Warn("malformed stop command", "message_id", d.Message.ID, "error", err)
			return nil
		}
		if _, err := w.Stop(ctx, p.TaskID); err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidState) {
				w.logger.Debug("stop command ignored", "task_id", p.TaskID, "reason", err)
				return nil
			}
			return err
		}
		return nil

	default:
		w.logger.Warn("unknown control message", "type", d.Message.Type)
		return nil
	}
}
