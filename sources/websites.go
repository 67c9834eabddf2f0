package sources

// Default returns the built-in registry of recipe sites. Each call returns a
// fresh map so callers may narrow or extend it.
func Default() Registry {
	r := Registry{}
	for _, d := range websites {
		r[d.Name] = d
	}
	return r
}

var websites = []Descriptor{
	{
		Name:       "Recipe Runner",
		Pattern:    `a href="(\S*)" tabindex="-1" aria-hidden="true"`,
		MainCourse: "https://www.reciperunner.com/category/recipes/dinners/",
		SideDish:   "https://reciperunner.com/category/recipes/side-dishes/",
	},
	{
		Name:       "Paleo Running Momma",
		Pattern:    `a class="entry-title-link" rel="bookmark" href="(\S*)"`,
		MainCourse: "https://www.paleorunningmomma.com/course/dinner/",
		SideDish:   "https://www.paleorunningmomma.com/course/veggies-sides/",
	},
	{
		Name:       "Skinny Taste",
		Pattern:    `h2 class="entry-title"><a href="(\S*)"`,
		MainCourse: "https://www.skinnytaste.com/recipe-index/?_course=dinner-recipes",
		SideDish:   "https://www.skinnytaste.com/recipe-index/?_course=side-dishes",
	},
	{
		Name:       "Skinny Taste.com",
		Pattern:    `h3 class="entry-title(?: ast-blog-single-element)*"><a href="(\S*)"(?: rel="bookmark")*`,
		MainCourse: "https://www.skinnytaste.com/recipes/dinner-recipes/",
		SideDish:   "https://www.skinnytaste.com/recipes/side-dishes/",
	},
	{
		Name:       "Two Peas and Their Pod",
		Pattern:    `<p class="entry-category">.*?</p><h2 class="post-summary__title"><a href="(\S*)"`,
		Skip:       `^<p class="entry-category">Breakfast/Brunch`,
		MainCourse: "https://www.twopeasandtheirpod.com/category/recipes/main-dishes/",
		SideDish:   "https://www.twopeasandtheirpod.com/category/recipes/side/",
	},
	{
		Name:       "Well Plated",
		Pattern:    `h2 class="post-summary__title"><a href="(\S*)"`,
		MainCourse: "https://www.wellplated.com/category/recipes-by-type/entreesmain-dishes/#recent",
		SideDish:   "https://www.wellplated.com/category/recipes-by-type/side-dishes-recipe-type/#recent",
	},
	{
		Name:       "The Spruce Eats",
		Pattern:    `a.*class="comp mntl-card-list-items mntl-document-card mntl-card card card--no-image".*href="(\S*)"`,
		MainCourse: "https://www.thespruceeats.com/dinner-4162806",
		SideDish:   "https://www.thespruceeats.com/side-dishes-4162722",
	},
	{
		Name:       "Nourished By Nutrition",
		Pattern:    `a class="post" href="(\S*)"`,
		MainCourse: "https://nourishedbynutrition.com/recipe-index/?_sft_category=entrees",
		SideDish:   "https://nourishedbynutrition.com/category/recipes/sides/",
	},
	{
		Name:       "Eating Bird Food",
		Pattern:    `h2 class="post-summary__title"><a href="(\S*)"`,
		MainCourse: "https://www.eatingbirdfood.com/category/meal-type/dinnerlunch/",
		SideDish:   "https://www.eatingbirdfood.com/category/meal-type/dinnerlunch/sides/",
	},
	{
		Name:       "Budget Bytes",
		Pattern:    `article class="post-summary post-summary--\S*"><a href="(\S*)" aria-label=`,
		MainCourse: "https://www.budgetbytes.com/category/recipes/?fwp_by_course=main-dish",
		SideDish:   "https://www.budgetbytes.com/category/recipes/side-dish/",
	},
	{
		Name:       "Lean and Green Recipes",
		Pattern:    `h2 class="recipe-card-title"><a href="(\S*)"`,
		MainCourse: "https://www.leanandgreenrecipes.net/recipes/category/main-course/",
		SideDish:   "https://www.leanandgreenrecipes.net/recipes/category/accompaniment/",
	},
	{
		Name:       "Minimalist Baker",
		Pattern:    `h3 class="post-summary__title"><a href="(\S*)"`,
		MainCourse: "https://www.minimalistbaker.com/recipe-index/?fwp_recipe-type=entree",
		SideDish:   "https://www.minimalistbaker.com/recipe-index/?fwp_recipe-type=salad",
	},
	{
		Name:       "Gimme Some Oven",
		Pattern:    `a href="(\S*)" rel="bookmark" title="`,
		MainCourse: "https://www.gimmesomeoven.com/all-recipes/?fwp_course=main-course",
		SideDish:   "https://www.gimmesomeoven.com/all-recipes/?fwp_course=side-dishes",
	},
	{
		Name:       "Half Baked Harvest",
		Pattern:    `h2 class="post-summary__title"><a href="(\S*)"`,
		MainCourse: "https://www.halfbakedharvest.com/category/recipes/type-of-meal/main-course/",
		SideDish:   "https://www.halfbakedharvest.com/category/recipes/type-of-meal/side-dishesvegetables/",
	},
	{
		Name:       "Pinch of Yum",
		Pattern:    `<a class="block md:hover:opacity-60 space-y-2 flex flex-col" href="(\S*)">`,
		MainCourse: "https://pinchofyum.com/recipes/dinner",
		SideDish:   "https://pinchofyum.com/recipes/salad",
	},
	{
		Name:       "Heather Christo",
		Pattern:    `<div class="title-label post">Recipe</div>\s*<a href="(\S*)"`,
		MainCourse: "https://heatherchristo.com/category/recipes/?cat=10533&orderby=date",
		SideDish:   "https://heatherchristo.com/category/recipes/?cat=200&orderby=date",
	},
	{
		Name:       "Fit Slow Cooker Queen",
		Pattern:    `a class="elementor-post__thumbnail__link" href="(\S*)"`,
		MainCourse: "https://fitslowcookerqueen.com/category/slowcooker/",
		SideDish:   "https://fitslowcookerqueen.com/category/salads/",
	},
	{
		Name:       "Eat Live Run",
		Pattern:    `div class="post-img">\s*<a href="(\S*)"`,
		MainCourse: "https://www.eatliverun.com/category/recipes-2/main-course-2/",
		SideDish:   "https://www.eatliverun.com/category/recipes-2/side-dishes/",
	},
	{
		Name:       "Spend with Pennies",
		Pattern:    `div class="post-summary__image">\s*<a href="(\S*)"`,
		MainCourse: "https://www.spendwithpennies.com/category/recipes/main-dishes/",
		SideDish:   "https://www.spendwithpennies.com/category/recipes/side-dishes/",
	},
	{
		// Round-up cards share the main/side classes; Skip drops them.
		Name:       "Love and Lemons",
		Pattern:    `class="[^"]*?\b(?:main-dish|side-dish)\b[^"]*"><a\s+href=(\S+)`,
		Skip:       `^class="[^"]*?\b(?:ri-tag-)?(?:recipe-)?round-?up\b[^"]*"`,
		MainCourse: "https://www.loveandlemons.com/recipes/main-dish-recipes/",
		SideDish:   "https://www.loveandlemons.com/recipes/side-dish-recipes/",
	},
}
