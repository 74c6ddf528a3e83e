package dashboard

import "strings"

// Catalog lists the companies whose sales area reports carry a point of sale
type Catalog struct {
	Area         string
	Companies    []string
	PointsOfSale map[string][]string
}

// NewCatalog builds a Catalog; the inputs are copied
func NewCatalog(area string, companies []string, pointsOfSale map[string][]string) *Catalog {
	c := &Catalog{
		Area:         area,
		Companies:    append([]string(nil), companies...),
		PointsOfSale: make(map[string][]string, len(pointsOfSale)),
	}
	for company, list := range pointsOfSale {
		c.PointsOfSale[company] = append([]string(nil), list...)
	}
	return c
}

// HasCompany reports whether company is one of the point-of-sale companies
func (c *Catalog) HasCompany(company string) bool {
	for _, name := range c.Companies {
		if strings.EqualFold(name, company) {
			return true
		}
	}
	return false
}

// RequiresPointOfSale reports whether (company, area) takes a point of sale
func (c *Catalog) RequiresPointOfSale(company, area string) bool {
	return c.Area != "" && area == c.Area && c.HasCompany(company)
}

// PointsOfSaleFor returns the options for one company, or every option when
// company is empty. The result is never nil.
func (c *Catalog) PointsOfSaleFor(company string) []string {
	if company == "" {
		out := make([]string, 0)
		seen := make(map[string]bool)
		for _, name := range c.Companies {
			for _, pos := range c.lookup(name) {
				if !seen[pos] {
					seen[pos] = true
					out = append(out, pos)
				}
			}
		}
		return out
	}

	list := c.lookup(company)
	if list == nil {
		return []string{}
	}
	return append([]string(nil), list...)
}

// NormalizeSelection returns pos if it is valid for company, else "".
// A company with no configured list accepts any non-empty value.
func (c *Catalog) NormalizeSelection(company, pos string) string {
	pos = strings.TrimSpace(pos)
	if pos == "" || !c.HasCompany(company) {
		return ""
	}
	list := c.lookup(company)
	if len(list) == 0 {
		return pos
	}
	for _, option := range list {
		if strings.EqualFold(option, pos) {
			return option
		}
	}
	return ""
}

func (c *Catalog) lookup(company string) []string {
	if list, ok := c.PointsOfSale[company]; ok {
		return list
	}
	for name, list := range c.PointsOfSale {
		if strings.EqualFold(name, company) {
			return list
		}
	}
	return nil
}
