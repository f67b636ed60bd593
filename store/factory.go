package store

import (
	"context"
	"fmt"
	"time"

	"product_catalog/domain"
)

const defaultLogo = "https://www.visa.com.ec/dam/VCOM/regional/lac/SPA/Default/Pay%20With%20Visa/Tarjetas/visa-signature-400x225.jpg"

type seedRow struct {
	id, name, description string
	release               domain.Date
}

var catalog = []seedRow{
	{"trj-crd", "Tarjeta de Crédito Clásica", "Tarjeta de consumo bajo la modalidad de crédito", domain.NewDate(2025, time.March, 1)},
	{"cdt-001", "CDT a 360 días", "Certificado de depósito a término fijo con excelente tasa", domain.NewDate(2025, time.January, 15)},
	{"cred-hip", "Crédito Hipotecario Vivienda", "Financiación hasta el 80% del valor del inmueble", domain.NewDate(2024, time.November, 20)},
	{"trj-gld", "Tarjeta de Crédito Gold", "Línea de crédito ampliada y beneficios premium", domain.NewDate(2025, time.February, 10)},
	{"trj-plt", "Tarjeta Platinum", "Tarjeta de crédito con beneficios exclusivos", domain.NewDate(2025, time.April, 1)},
	{"trj-blk", "Tarjeta Black", "Tarjeta de gama alta con servicios premium", domain.NewDate(2024, time.December, 15)},
	{"cdn-001", "Cuenta de Nómina", "Cuenta diseñada para la recepción de salarios", domain.NewDate(2024, time.December, 1)},
	{"cta-ah-01", "Cuenta de Ahorros Tradicional", "Cuenta con intereses y manejo básico", domain.NewDate(2025, time.January, 20)},
	{"cta-ah-02", "Cuenta de Ahorros Premium", "Mejores tasas para saldos altos", domain.NewDate(2024, time.September, 10)},
	{"inv-fnd-01", "Fondo de Inversión Conservador", "Riesgo bajo y rentabilidad estable", domain.NewDate(2024, time.October, 5)},
	{"inv-fnd-02", "Fondo de Inversión Moderado", "Equilibrio entre riesgo y retorno", domain.NewDate(2025, time.March, 15)},
	{"inv-fnd-03", "Fondo de Inversión Agresivo", "Alta rentabilidad con riesgo elevado", domain.NewDate(2025, time.May, 10)},
	{"cdt-002", "CDT a 180 días", "CDT de corto plazo con buena tasa", domain.NewDate(2025, time.February, 1)},
	{"cdt-003", "CDT a 90 días", "Inversión rápida con rentabilidad fija", domain.NewDate(2024, time.October, 25)},
	{"seg-vida", "Seguro de Vida", "Cobertura completa para riesgos personales", domain.NewDate(2025, time.March, 30)},
	{"seg-hogar", "Seguro de Hogar", "Protección completa para tu vivienda", domain.NewDate(2024, time.August, 20)},
	{"seg-auto", "Seguro de Auto", "Cobertura total ante accidentes y robos", domain.NewDate(2025, time.May, 5)},
	{"crd-prs", "Crédito Personal", "Crédito rápido con aprobación express", domain.NewDate(2024, time.November, 1)},
	{"crd-edu", "Crédito Educativo", "Financiación para estudios superiores", domain.NewDate(2025, time.June, 1)},
	{"crd-auto", "Crédito Vehicular", "Crédito para adquisición de vehículo nuevo", domain.NewDate(2024, time.September, 18)},
	{"billetera-01", "Billetera Digital Standard", "Pagos rápidos desde el celular", domain.NewDate(2025, time.January, 10)},
	{"billetera-02", "Billetera Digital Premium", "Incluye cashback y recompensas", domain.NewDate(2024, time.December, 22)},
	{"apl-bnk", "App Bancaria Plus", "Gestión completa de productos digitales", domain.NewDate(2025, time.March, 3)},
	{"cta-corr-01", "Cuenta Corriente Empresarial", "Cuenta para manejo de flujos de negocio", domain.NewDate(2024, time.October, 12)},
	{"cta-corr-02", "Cuenta Corriente Premium", "Beneficios preferenciales para clientes VIP", domain.NewDate(2025, time.February, 22)},
	{"pln-pen", "Plan de Pensiones", "Ahorro programado para retiro", domain.NewDate(2025, time.April, 10)},
	{"pln-inv", "Plan de Inversión Automática", "Aportes recurrentes a fondos de inversión", domain.NewDate(2024, time.July, 14)},
	{"pag-movil", "Pago Móvil", "Pagos de persona a persona al instante", domain.NewDate(2025, time.March, 28)},
	{"cred-emp", "Crédito Empresarial", "Línea de financiación para empresas", domain.NewDate(2024, time.November, 30)},
	{"leasing-01", "Leasing Vehicular", "Arrendamiento financiero de vehículos", domain.NewDate(2025, time.May, 20)},
	{"leasing-02", "Leasing Maquinaria", "Arrendamiento de maquinaria pesada", domain.NewDate(2024, time.October, 8)},
}

// Catalog returns the built-in product catalog in its canonical order.
// Some identifiers are longer than the form allows; they predate the rule
// and are loaded as-is.
func Catalog() []domain.Product {
	out := make([]domain.Product, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, domain.Product{
			ID:           r.id,
			Name:         r.name,
			Description:  r.description,
			Logo:         defaultLogo,
			DateRelease:  r.release,
			DateRevision: r.release.AddYears(1),
		})
	}
	return out
}

// NewStore constructs the repository, optionally preloaded with Catalog().
func NewStore(ctx context.Context, seed bool) (*InMemoryStore, error) {
	s := NewInMemoryStore()
	if !seed {
		return s, nil
	}
	n, err := s.Seed(ctx, Catalog())
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.Info("catalog seeded", "count", n)
	return s, nil
}
