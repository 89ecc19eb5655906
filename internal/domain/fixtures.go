package domain

import (
	"fmt"

	"github.com/google/uuid"
)

const unsplash = "https://images.unsplash.com/photo-"

type demoSite struct {
	lat, lng float64
	coverage int
	kind     WaterBodyType
	place    string
	photo    string
}

// demoSites is the seed data set shown on first start, spread across India.
var demoSites = []demoSite{
	// north
	{28.6139, 77.2090, 65, WaterBodyRiver, "Yamuna, Delhi", "1596526131083-e8c633c948d2"},
	{34.0837, 74.7973, 45, WaterBodyLake, "Dal Lake, Srinagar", "1580196920985-1158659d4fdd"},
	{30.7333, 76.7794, 15, WaterBodyLake, "Sukhna Lake, Chandigarh", "1570191913384-7b068c291244"},
	{26.8467, 80.9462, 55, WaterBodyRiver, "Gomti, Lucknow", "1621849400072-f554417f7051"},
	{26.4499, 80.3319, 70, WaterBodyRiver, "Ganga, Kanpur", "1621849400072-f554417f7051"},
	{27.1767, 78.0081, 40, WaterBodyCanal, "Agra Canal", "1584288019792-50d4c1f8d424"},
	// south
	{17.4239, 78.4738, 80, WaterBodyLake, "Hussain Sagar, Hyderabad", "1612450800052-dc3625fdfd2b"},
	{12.9352, 77.6693, 95, WaterBodyLake, "Bellandur Lake, Bangalore", "1584288019792-50d4c1f8d424"},
	{13.0012, 80.2565, 45, WaterBodyRiver, "Adyar, Chennai", "1533514114760-4389f572ae26"},
	{9.9312, 76.2673, 5, WaterBodyCanal, "Kerala Backwaters, Kochi", "1602216056096-3b40cc0c9944"},
	{11.4102, 76.6950, 20, WaterBodyLake, "Ooty Lake", "1580196920985-1158659d4fdd"},
	{10.2308, 77.4859, 10, WaterBodyLake, "Kodaikanal Lake", "1580196920985-1158659d4fdd"},
	// west
	{19.1176, 72.9060, 85, WaterBodyLake, "Powai Lake, Mumbai", "1621849400072-f554417f7051"},
	{18.5384, 73.7820, 60, WaterBodyLake, "Pashan Lake, Pune", "1551288049-bebda4e38f71"},
	{23.0225, 72.5714, 30, WaterBodyRiver, "Sabarmati, Ahmedabad", "1584288019792-50d4c1f8d424"},
	{24.5854, 73.7125, 15, WaterBodyLake, "Fateh Sagar, Udaipur", "1580196920985-1158659d4fdd"},
	{21.1702, 72.8311, 50, WaterBodyRiver, "Tapi, Surat", "1584288019792-50d4c1f8d424"},
	// east and northeast
	{22.5726, 88.3639, 40, WaterBodyLake, "East Kolkata Wetlands", "1596526131083-e8c633c948d2"},
	{25.5941, 85.1376, 65, WaterBodyRiver, "Ganga, Patna", "1596526131083-e8c633c948d2"},
	{26.1445, 91.7362, 75, WaterBodyLake, "Deepor Beel, Guwahati", "1621849400072-f554417f7051"},
	{23.3441, 85.3096, 25, WaterBodyPond, "Ranchi", "1580196920985-1158659d4fdd"},
	// central
	{23.2599, 77.4126, 30, WaterBodyLake, "Upper Lake, Bhopal", "1580196920985-1158659d4fdd"},
	{22.7196, 75.8577, 40, WaterBodyPond, "Indore", "1580196920985-1158659d4fdd"},
	{21.1458, 79.0882, 20, WaterBodyLake, "Futala Lake, Nagpur", "1580196920985-1158659d4fdd"},
}

var demoNamespace = uuid.MustParse("6f1c2d7e-3b0a-4f5e-9a51-5c8e2b7d4a10")

// DemoReports builds the seed data set. IDs are derived from the site index
// so reseeding yields the same identities. Status and health score follow
// the band table.
func DemoReports() []Report {
	now := Now()
	out := make([]Report, len(demoSites))
	for i, s := range demoSites {
		out[i] = Report{
			ID:             uuid.NewSHA1(demoNamespace, []byte(fmt.Sprintf("demo-%02d", i))).String(),
			Image:          unsplash + s.photo + "?q=80&w=400",
			Lat:            s.lat,
			Lng:            s.lng,
			Type:           s.kind,
			Coverage:       s.coverage,
			HealthScore:    NominalHealth(s.coverage),
			Status:         StatusFor(s.coverage),
			Timestamp:      now,
			Place:          s.place,
			LocationSource: LocationDevice,
		}
	}
	return out
}
