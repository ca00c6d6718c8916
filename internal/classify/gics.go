package classify

// GICS-like sector taxonomy emulated from FactSet industry codes. The
// table is static reference data loaded once per run and consulted
// read-only.

// Sector names keyed by GICS sector code.
var sectorNames = map[int]string{
	10: "Energy",
	15: "Materials",
	20: "Industrials",
	25: "Consumer_Discretionary",
	30: "Consumer_Staples",
	35: "Health_Care",
	40: "Financials",
	45: "Information_Technology",
	50: "Communication_Services",
	55: "Utilities",
	60: "Real_Estate",
	90: "Not_Classified",
}

// SectorUnclassified is assigned to instruments whose industry code is
// unknown or unmapped. A typed sentinel, never an absent value.
const SectorUnclassified = "Unclassified"

// industryToSector maps a FactSet industry code to a GICS sector code.
// Government codes (7xxx) and 9999 are deliberately absent: they have
// no equity sector and resolve to SectorUnclassified.
var industryToSector = map[int]int{
	1105: 15, // Steel
	1115: 15, // Aluminum
	1120: 15, // Precious Metals
	1125: 15, // Other Metals/Minerals
	1130: 15, // Forest Products
	1135: 15, // Construction Materials
	1205: 15, // Metal Fabrication
	1210: 20, // Industrial Machinery
	1220: 20, // Trucks/Construction/Farm Machinery
	1225: 25, // Auto Parts: OEM
	1230: 20, // Building Products
	1235: 20, // Electrical Products
	1245: 20, // Office Equipment/Supplies
	1250: 20, // Miscellaneous Manufacturing
	1255: 20, // Industrial Conglomerates
	1305: 45, // Semiconductors
	1310: 45, // Electronic Components
	1315: 45, // Electronic Equipment/Instruments
	1320: 45, // Telecommunications Equipment
	1330: 20, // Aerospace & Defense
	1340: 45, // Computer Processing Hardware
	1345: 45, // Computer Peripherals
	1352: 45, // Computer Communications
	1355: 45, // Electronic Production Equipment
	1405: 25, // Motor Vehicles
	1410: 25, // Automotive Aftermarket
	1415: 25, // Homebuilding
	1420: 25, // Home Furnishings
	1425: 25, // Electronics/Appliances
	1430: 20, // Tools & Hardware
	1435: 25, // Recreational Products
	1445: 25, // Other Consumer Specialties
	2105: 10, // Oil & Gas Production
	2110: 10, // Integrated Oil
	2120: 10, // Oil Refining/Marketing
	2125: 10, // Coal
	2205: 15, // Chemicals: Major Diversified
	2210: 15, // Chemicals: Specialty
	2215: 15, // Chemicals: Agricultural
	2220: 25, // Textiles
	2225: 30, // Agricultural Commodities/Milling
	2230: 15, // Pulp & Paper
	2235: 15, // Containers/Packaging
	2240: 15, // Industrial Specialties
	2305: 35, // Pharmaceuticals: Major
	2310: 35, // Pharmaceuticals: Other
	2315: 35, // Pharmaceuticals: Generic
	2320: 35, // Biotechnology
	2325: 35, // Medical Specialties
	2405: 30, // Food: Major Diversified
	2410: 30, // Food: Specialty/Candy
	2415: 30, // Food: Meat/Fish/Dairy
	2420: 30, // Beverages: Non-Alcoholic
	2425: 30, // Beverages: Alcoholic
	2430: 30, // Tobacco
	2435: 30, // Household/Personal Care
	2440: 25, // Apparel/Footwear
	2450: 25, // Consumer Sundries
	3105: 10, // Contract Drilling
	3110: 10, // Oilfield Services/Equipment
	3115: 20, // Engineering & Construction
	3120: 20, // Environmental Services
	3130: 10, // Oil & Gas Pipelines
	3205: 20, // Miscellaneous Commercial Services
	3210: 25, // Advertising/Marketing Services
	3215: 20, // Commercial Printing/Forms
	3220: 40, // Financial Publishing/Services
	3235: 20, // Personnel Services
	3255: 25, // Wholesale Distributors
	3260: 30, // Food Distributors
	3265: 45, // Electronics Distributors
	3270: 35, // Medical Distributors
	3305: 45, // Data Processing Services
	3308: 45, // Information Technology Services
	3310: 45, // Packaged Software
	3320: 45, // Internet Software/Services
	3355: 35, // Managed Health Care
	3360: 35, // Hospital/Nursing Management
	3365: 35, // Medical/Nursing Services
	3370: 35, // Services to the Health Industry
	3405: 25, // Media Conglomerates
	3410: 25, // Broadcasting
	3415: 25, // Cable/Satellite TV
	3420: 25, // Publishing: Newspapers
	3425: 25, // Publishing: Books/Magazines
	3430: 25, // Movies/Entertainment
	3435: 25, // Restaurants
	3440: 25, // Hotels/Resorts/Cruiselines
	3445: 25, // Casinos/Gaming
	3450: 25, // Other Consumer Services
	3505: 30, // Food Retail
	3510: 30, // Drugstore Chains
	3515: 25, // Department Stores
	3520: 25, // Discount Stores
	3525: 25, // Apparel/Footwear Retail
	3530: 25, // Home Improvement Chains
	3535: 25, // Electronics/Appliance Stores
	3540: 25, // Specialty Stores
	3545: 25, // Catalog/Specialty Distribution
	3550: 25, // Internet Retail
	4605: 20, // Air Freight/Couriers
	4610: 20, // Airlines
	4615: 20, // Trucking
	4620: 20, // Railroads
	4625: 20, // Marine Shipping
	4630: 20, // Other Transportation
	4705: 55, // Electric Utilities
	4735: 55, // Gas Distributors
	4755: 55, // Water Utilities
	4760: 55, // Alternative Power Generation
	4805: 40, // Major Banks
	4810: 40, // Regional Banks
	4825: 40, // Savings Banks
	4830: 40, // Finance/Rental/Leasing
	4840: 40, // Investment Banks/Brokers
	4845: 40, // Investment Managers
	4850: 40, // Financial Conglomerates
	4855: 40, // Property/Casualty Insurance
	4860: 40, // Multi-Line Insurance
	4865: 40, // Life/Health Insurance
	4875: 40, // Specialty Insurance
	4880: 40, // Insurance Brokers/Services
	4885: 60, // Real Estate Development
	4890: 60, // Real Estate Investment Trusts
	4905: 50, // Major Telecommunications
	4910: 50, // Specialty Telecommunications
	4915: 50, // Wireless Telecommunications
	6005: 90, // Miscellaneous
	6010: 90, // Investment Trusts/Mutual Funds
}

// SectorForIndustry maps a FactSet industry code to its sector name.
// Unknown codes resolve to SectorUnclassified.
func SectorForIndustry(code int) string {
	gics, ok := industryToSector[code]
	if !ok {
		return SectorUnclassified
	}
	name, ok := sectorNames[gics]
	if !ok {
		return SectorUnclassified
	}
	return name
}

// Sectors returns all sector names the taxonomy can produce, excluding
// the unclassified sentinel.
func Sectors() []string {
	names := make([]string, 0, len(sectorNames))
	for _, code := range []int{10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 90} {
		names = append(names, sectorNames[code])
	}
	return names
}
