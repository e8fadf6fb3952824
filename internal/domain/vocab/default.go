package vocab

// Default returns the built-in vocabulary. French retail terms dominate
// because the audited storefronts are French grocery apps.
func Default() Vocabulary {
	return Vocabulary{
		AddTerms:  []string{"ajouter", "ajout", "add", "mettre"},
		CartTerms: []string{"panier", "cart", "basket", "caddie"},
		AddToCartPhrases: []string{
			"ajouter au panier", "ajout au panier", "mettre au panier",
			"ajouter un produit dans le panier", "add to cart", "add to basket",
		},
		SearchTerms:       []string{"rechercher", "recherche", "chercher", "search", "trouver", "find"},
		CheckoutTerms:     []string{"checkout", "commander", "passer commande", "valider la commande", "finaliser", "proceed"},
		PaymentTerms:      []string{"payer", "paiement", "payment", "pay", "carte bancaire"},
		ConfirmationTerms: []string{"confirmation", "commande confirmée", "order placed", "thank you", "merci pour votre commande"},
		LoginTerms:        []string{"connexion", "se connecter", "login", "sign in", "inscription", "s'inscrire", "register", "mot de passe", "password"},
		FilterTerms:       []string{"filtrer", "filtre", "filter", "trier", "trier par", "sort", "sort by"},

		PriceWords:      []string{"prix", "price", "total", "montant"},
		CurrencySymbols: []string{"€", "$", "£"},
		CurrencyCodes:   []string{"eur", "euro", "euros", "usd", "gbp"},
		WeightUnits:     []string{"kg", "g", "gr", "mg", "l", "cl", "ml"},
		ProductKeywords: []string{
			"bio", "sachet", "paquet", "boîte", "bouteille", "barquette", "pack",
			"lait", "pain", "fromage", "emmental", "beurre", "yaourt", "oeuf", "crème",
			"poulet", "boeuf", "porc", "jambon", "saucisse", "poisson", "saumon",
			"fruit", "légume", "pomme", "banane", "orange", "tomate", "salade", "carotte",
			"pâtes", "riz", "café", "chocolat", "biscuit", "céréale", "jus", "vin", "bière",
			"huile", "sucre", "farine", "surgelé", "râpé",
		},

		NavigationTerms: []string{
			"panier", "mon panier", "votre panier", "cart", "my cart", "basket",
			"rechercher", "recherche", "search", "accueil", "home", "menu", "retour", "back",
			"compte", "mon compte", "account", "promotions", "mes promos", "rayons", "catégories",
			"voir tout", "tout voir", "fruits et légumes", "viandes et poissons", "boucherie",
			"poissonnerie", "crémerie et produits laitiers", "surgelés", "épicerie", "boissons",
			"drive", "livraison", "favoris", "mes listes",
		},
		NavigationPhrases: []string{
			"ouvrir le panier", "voir le panier", "voir mon panier", "accéder au panier",
			"ouvrir la recherche", "open cart", "view cart", "go to cart", " > ", " › ",
		},

		Boilerplate: []string{
			"ajouter au panier", "add to cart", "ajouter", "prix n/a", "n/a", "prix indisponible",
			"nouveau", "en stock", "bouton", "button", "image", "photo", "ce produit est noté", "sur 5",
		},
		SystemTerms: []string{
			"new notifications", "nouvelles notifications", "notification", "version", "logo",
			"mise à jour", "update available", "capture d'écran",
		},
		SystemPackages: []string{
			"com.android.systemui", "com.android.launcher", "com.google.android.apps.nexuslauncher",
			"com.sec.android.app.launcher",
		},
		PromotionTerms: []string{
			"promotion", "promo", "cagnott", "sponsoris", "découvrez", "faites des économies",
			"facilitez", "bon plan", "offre", "club",
		},
		GenericTerms: []string{
			"produit", "article", "item", "product", "bouton", "valider", "supprimer", "retirer",
			"ajouter", "inconnu", "unknown", "ok", "fermer", "close", "annuler",
		},
		GenericPhrases: []string{
			"produit à remplacer", "déjà ajoutés", "produits indisponibles", "alternatives pour remplacer",
			"ajouter un produit", "retirer un produit", "euros et", "centimes", "rien oublié",
			"valider mon panier", "vider", "supprimer", "retirer", "annuler", "êtes vous sûr",
			"veuillez", "avis",
		},

		WebClasses:       []string{"webview", "web_view", "chromium", "android.webkit"},
		ListClasses:      []string{"recyclerview", "listview", "gridview", "lazycolumn", "lazyverticalgrid"},
		TabClasses:       []string{"tablayout", "tabwidget", "tabbar", "tabview"},
		BottomNavClasses: []string{"bottomnavigation", "bottombar", "navigationbar"},

		Brands: map[string]string{
			"carrefour":   "Carrefour",
			"leclerc":     "E.Leclerc",
			"auchan":      "Auchan",
			"casino":      "Casino",
			"amazon":      "Amazon",
			"cdiscount":   "Cdiscount",
			"monoprix":    "Monoprix",
			"lidl":        "Lidl",
			"intermarche": "Intermarché",
		},
	}
}
