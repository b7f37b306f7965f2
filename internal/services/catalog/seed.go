package catalog

import "github.com/magabrotheeeer/bluewave-shop/internal/models"

// PriceRefs — цены провайдера для демо-каталога, задаются при запуске сида.
type PriceRefs struct {
	Subscription string
	OneTime      map[string]string
}

// DefaultProducts — демо-каталог: одна подписка на данные и оборудование для опреснения.
func DefaultProducts(refs PriceRefs) []models.Product {
	p := []models.Product{
		{
			Name:            "Researcher Data Subscription (Processed)",
			Slug:            "researcher-data-subscription-processed",
			Description:     "Monthly access to processed, analytics-ready environmental metrics via the BlueWave API.",
			PriceMinorUnits: 4900,
			Type:            models.ProductSubscription,
			StripePriceID:   refs.Subscription,
		},
		{
			Name:            "BlueWave Micro-Desal S1 (Solar Buoy)",
			Slug:            "bluewave-micro-desal-s1-solar-buoy",
			Description:     "Solar-powered micro-desalination buoy for off-grid coastal sites.",
			PriceMinorUnits: 349900,
			Type:            models.ProductOneTime,
		},
		{
			Name:            "SWRO-5K Seawater RO (5,000 GPD)",
			Slug:            "swro-5k-seawater-ro-5000-gpd",
			Description:     "Compact seawater reverse osmosis skid with energy recovery.",
			PriceMinorUnits: 1899900,
			Type:            models.ProductOneTime,
		},
		{
			Name:            "Under-sink RO (Household)",
			Slug:            "under-sink-ro-household",
			Description:     "Five-stage under-sink RO for homes and clinics.",
			PriceMinorUnits: 39900,
			Type:            models.ProductOneTime,
		},
		{
			Name:            "Water Softener 48k Grain",
			Slug:            "water-softener-48k-grain",
			Description:     "Ion-exchange softener to protect plumbing and appliances from scale.",
			PriceMinorUnits: 74900,
			Type:            models.ProductOneTime,
		},
		{
			Name:            "Pretreatment Skid (MMF + Carbon)",
			Slug:            "pretreatment-skid-mmf-carbon",
			Description:     "Multimedia + activated carbon filtration skid to condition RO feedwater.",
			PriceMinorUnits: 549900,
			Type:            models.ProductOneTime,
		},
	}
	for i := range p {
		p[i].Currency = "gbp"
		p[i].Active = true
		if p[i].Type == models.ProductOneTime {
			p[i].StripePriceID = refs.OneTime[p[i].Slug]
		}
	}
	return p
}
