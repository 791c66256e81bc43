package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/ebbinghausbot/internal/scheduler"
	"github.com/example/ebbinghausbot/internal/spaced_repetition"
	"github.com/example/ebbinghausbot/pkg/models"
)

const dateLayout = "02.01.2006 15:04"

const (
	msgWelcome = `🤖 Добро пожаловать в бота для повторения по методу Эббингауза!

Доступные команды:
/newtopic - добавить новую тему
/list - показать все темы
/done - отметить повторение как выполненное`

	msgAskTopic        = "📝 Запишите тему, которую вы изучили:"
	msgAskDate         = "🕐 Введите дату и время в формате ДД.ММ.ГГГГ ЧЧ:ММ\nИли 'сейчас'"
	msgBadDate         = "❌ Неверный формат даты! Попробуйте еще раз:"
	msgNoTopics        = "📭 У вас пока нет добавленных тем."
	msgNothingToMark   = "❌ У вас нет тем для отметки."
	msgBadTopic        = "❌ Неверный номер темы!"
	msgBadRepetition   = "❌ Неверный номер повторения!"
	msgNotANumber      = "❌ Введите число!"
	msgUseCommands     = "🤔 Используйте команды: /start, /newtopic, /list, /done"
	msgUnknownCommand  = "❌ Используйте /start, /newtopic, /list или /done"
	msgInternalFailure = "❌ Произошла ошибка. Пожалуйста, попробуйте позже."
)

// nowWord is what users type instead of a timestamp
const nowWord = "сейчас"

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func formatTopicAdded(name string, reps []models.Repetition, loc *time.Location) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("✅ Тема '%s' добавлена!\n\n📅 Расписание:\n", name))
	for i, rep := range reps {
		status := "⏳"
		if rep.Completed {
			status = "✅"
		}
		text.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, formatDate(rep.DueDate, loc), status))
	}
	return text.String()
}

func formatTopicList(topics []models.Topic, loc *time.Location) string {
	var text strings.Builder
	text.WriteString("📚 Ваши темы для повторения:\n\n")
	for i, topic := range topics {
		text.WriteString(fmt.Sprintf("🎯 Тема %d: %s\n", i+1, topic.Name))
		text.WriteString(fmt.Sprintf("   Изучена: %s\n", formatDate(topic.StudyDate, loc)))
		text.WriteString("   Повторения:\n")
		for j, rep := range topic.Repetitions {
			status := "⏳ Ожидает"
			if rep.Completed {
				status = "✅ Выполнено"
			}
			text.WriteString(fmt.Sprintf("   %d. %s - %s\n", j+1, formatDate(rep.DueDate, loc), status))
		}
		text.WriteString(fmt.Sprintf("   Прогресс: %d/%d выполнено\n\n", topic.CompletedCount(), len(topic.Repetitions)))
	}
	return text.String()
}

func formatTopicChoice(topics []models.Topic) string {
	var text strings.Builder
	text.WriteString("📋 Выберите тему для отметки (введите номер):\n\n")
	for i, topic := range topics {
		text.WriteString(fmt.Sprintf("%d. %s (%d/%d выполнено)\n", i+1, topic.Name, topic.CompletedCount(), len(topic.Repetitions)))
	}
	return text.String()
}

func formatRepetitionChoice(topic models.Topic, loc *time.Location) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("🎯 Тема: %s\n\nВыберите номер повторения:\n", topic.Name))
	for i, rep := range topic.Repetitions {
		status := "❌"
		if rep.Completed {
			status = "✅"
		}
		text.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, formatDate(rep.DueDate, loc), status))
	}
	return text.String()
}

func formatRepetitionDone(number int, name string, due time.Time, loc *time.Location) string {
	return fmt.Sprintf("✅ Повторение %d для '%s' выполнено!\nВремя: %s", number, name, formatDate(due, loc))
}

func formatReminder(r scheduler.Reminder, loc *time.Location) string {
	return fmt.Sprintf("🔔 Пора повторить тему '%s'!\n\n🔄 Повторение %d/%d, запланировано на %s\n\nПосле повторения отметьте его командой /done",
		r.TopicName, r.RepetitionNumber, spaced_repetition.RepetitionCount, formatDate(r.DueDate, loc))
}
