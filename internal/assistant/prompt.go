package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/barber-manager/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

// Catalog is the static shop context given to the model on every message.
type Catalog struct {
	Shop     models.Barbershop
	Services []models.Service
	Barbers  []models.User
	Hours    []models.BusinessHours
}

func LoadCatalog(ctx context.Context, repo domain.Repository, barbershopID uint) (*Catalog, error) {
	shop, err := repo.GetBarbershopByID(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	services, err := repo.ListServices(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	barbers, err := repo.ListBarbers(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	hours, err := repo.ListBusinessHours(ctx, barbershopID)
	if err != nil {
		return nil, err
	}
	return &Catalog{Shop: *shop, Services: services, Barbers: barbers, Hours: hours}, nil
}

var weekdayNames = [...]string{"domingo", "segunda", "terça", "quarta", "quinta", "sexta", "sábado"}

// SystemPrompt renders the instructions and catalog in Portuguese. now fixes
// "today" for the model.
func (c *Catalog) SystemPrompt(now time.Time) string {
	now = now.In(timezone.Location(c.Shop.Timezone))

	var b strings.Builder
	fmt.Fprintf(&b, "Você é o atendente virtual da barbearia %s no WhatsApp.\n", c.Shop.Name)
	fmt.Fprintf(&b, "Hoje é %s, %s. Horário atual: %s.\n",
		weekdayNames[now.Weekday()], now.Format("2006-01-02"), now.Format("15:04"))
	b.WriteString("Responda em português, de forma curta e simpática.\n")
	b.WriteString("Use check_availability antes de sugerir horários e só chame create_booking ")
	b.WriteString("depois que o cliente confirmar serviço, barbeiro, data, horário e nome.\n")
	b.WriteString("Se o cliente pedir um atendente ou você não souber ajudar, chame transfer_to_human.\n")
	b.WriteString("Nunca invente horários, preços ou serviços.\n")

	if c.Shop.Address != "" {
		fmt.Fprintf(&b, "\nEndereço: %s\n", c.Shop.Address)
	}

	b.WriteString("\nServiços:\n")
	for _, s := range c.Services {
		fmt.Fprintf(&b, "- [%d] %s: R$ %s, %d min\n", s.ID, s.Name, s.Price.StringFixed(2), s.DurationMin)
	}

	b.WriteString("\nBarbeiros:\n")
	for _, u := range c.Barbers {
		fmt.Fprintf(&b, "- [%d] %s\n", u.ID, u.Name)
	}

	hours := append([]models.BusinessHours(nil), c.Hours...)
	sort.Slice(hours, func(i, j int) bool { return hours[i].Weekday < hours[j].Weekday })

	b.WriteString("\nHorário de funcionamento:\n")
	for _, h := range hours {
		if h.Weekday < 0 || h.Weekday > 6 {
			continue
		}
		if h.Closed {
			fmt.Fprintf(&b, "- %s: fechado\n", weekdayNames[h.Weekday])
			continue
		}
		fmt.Fprintf(&b, "- %s: %s às %s\n", weekdayNames[h.Weekday], h.OpenTime, h.CloseTime)
	}

	return b.String()
}
