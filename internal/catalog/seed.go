package catalog

import "context"

// Seed returns the built-in saint roster. The matcher falls back to it
// when the catalog is unreachable or empty, so trait matching keeps
// working on a fresh deployment.
func Seed() []Saint {
	return []Saint{
		{Slug: "francis-of-assisi", Name: "St. Francis of Assisi", Aliases: []string{"Francis", "Francesco"}, Era: "13th century", Gender: "male", BirthPlace: "Assisi, Italy", HasBeard: true},
		{Slug: "therese-of-lisieux", Name: "St. Thérèse of Lisieux", Aliases: []string{"Therese", "Little Flower"}, Era: "19th century", Gender: "female"},
		{Slug: "teresa-of-calcutta", Name: "St. Teresa of Calcutta", Aliases: []string{"Mother Teresa"}, Era: "20th century", Gender: "female"},
		{Slug: "john-paul-ii", Name: "St. John Paul II", Aliases: []string{"Karol Wojtyła"}, Era: "20th century", Gender: "male"},
		{Slug: "gianna-beretta-molla", Name: "St. Gianna Beretta Molla", Era: "20th century", Gender: "female"},
		{Slug: "padre-pio", Name: "St. Pio of Pietrelcina", Aliases: []string{"Padre Pio"}, Era: "20th century", Gender: "male", BirthPlace: "Pietrelcina, Italy", HasBeard: true},
		{Slug: "augustine-of-hippo", Name: "St. Augustine of Hippo", Era: "4th century", Gender: "male"},
		{Slug: "thomas-aquinas", Name: "St. Thomas Aquinas", Era: "13th century", Gender: "male"},
		{Slug: "catherine-of-siena", Name: "St. Catherine of Siena", Era: "14th century", Gender: "female"},
		{Slug: "ignatius-of-loyola", Name: "St. Ignatius of Loyola", Era: "16th century", Gender: "male"},
		{Slug: "dominic-guzman", Name: "St. Dominic", Era: "13th century", Gender: "male"},
		{Slug: "benedict-of-nursia", Name: "St. Benedict", Era: "6th century", Gender: "male"},
		{Slug: "scholastica", Name: "St. Scholastica", Era: "6th century", Gender: "female"},
		{Slug: "kateri-tekakwitha", Name: "St. Kateri Tekakwitha", Era: "17th century", Gender: "female"},
		{Slug: "joan-of-arc", Name: "St. Joan of Arc", Era: "15th century", Gender: "female"},
		{Slug: "john-henry-newman", Name: "St. John Henry Newman", Era: "19th century", Gender: "male"},
		{Slug: "josemaria-escriva", Name: "St. Josemaría Escrivá", Era: "20th century", Gender: "male"},
		{Slug: "maximilian-kolbe", Name: "St. Maximilian Kolbe", Era: "20th century", Gender: "male"},
		{Slug: "faustina-kowalska", Name: "St. Faustina Kowalska", Era: "20th century", Gender: "female"},
		{Slug: "bernadette-soubirous", Name: "St. Bernadette Soubirous", Era: "19th century", Gender: "female"},
	}
}

// ListWithFallback returns the stored roster, or the seed roster when
// the store fails or holds no saints. The error from the store is
// swallowed deliberately; callers that need it should use ListSaints.
func ListWithFallback(ctx context.Context, store Store) []Saint {
	saints, err := store.ListSaints(ctx)
	if err != nil || len(saints) == 0 {
		return Seed()
	}
	return saints
}
