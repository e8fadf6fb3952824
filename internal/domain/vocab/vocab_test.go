package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFold(t *testing.T) {
	Convey("Given mixed-case accented text", t, func() {
		Convey("Then accents and case are folded and spaces collapsed", func() {
			So(Fold("  Crémerie   et Produits Laitiers "), ShouldEqual, "cremerie et produits laitiers")
			So(Fold("Râpé 2,50€"), ShouldEqual, "rape 2,50€")
			So(Fold("L’épicerie"), ShouldEqual, "l'epicerie")
			So(Fold(""), ShouldEqual, "")
		})

		Convey("Then Words keeps only letters and digits", func() {
			So(Words("Prix N/A"), ShouldEqual, "prix n a")
		})
	})
}

func TestLexiconMatching(t *testing.T) {
	lx := Compile(Default())

	Convey("Given the default lexicon", t, func() {
		Convey("When text carries add-to-cart vocabulary", func() {
			So(lx.HasAddToCart(NewText("Ajouter au panier")), ShouldBeTrue)
			So(lx.HasAddToCart(NewText("ADD TO CART")), ShouldBeTrue)
			So(lx.HasAddToCart(NewText("Ajouter un produit dans le panier")), ShouldBeTrue)
			So(lx.HasAddToCart(NewText("Ajouter", "Mon panier")), ShouldBeTrue)
			So(lx.HasAddToCart(NewText("Ouvrir le panier")), ShouldBeFalse)
		})

		Convey("When text carries cart or search vocabulary", func() {
			So(lx.HasCart(NewText("Voir mes paniers")), ShouldBeTrue)
			So(lx.HasSearch(NewText("Rechercher un produit")), ShouldBeTrue)
			So(lx.HasSearch(NewText("Bananes")), ShouldBeFalse)
		})

		Convey("When text carries price markers", func() {
			So(lx.HasCurrency(NewText("2,50€")), ShouldBeTrue)
			So(lx.HasCurrency(NewText("3 euros")), ShouldBeTrue)
			So(lx.HasCurrency(NewText("Bananes")), ShouldBeFalse)
			So(lx.HasPriceMarker(NewText("Sachet 500 g")), ShouldBeTrue)
			So(lx.HasPriceMarker(NewText("Prix au kilo")), ShouldBeTrue)
		})

		Convey("When navigation chrome is checked", func() {
			So(lx.IsNavigation(NewText("Panier")), ShouldBeTrue)
			So(lx.IsNavigation(NewText("Rechercher")), ShouldBeTrue)
			So(lx.IsNavigation(NewText("Ouvrir le panier")), ShouldBeTrue)
			So(lx.IsNavigation(NewText("Accueil > Fruits")), ShouldBeTrue)
			So(lx.IsNavigation(NewText("Fruits et légumes")), ShouldBeTrue)
			So(lx.IsNavigation(NewText("Bananes bio 1kg")), ShouldBeFalse)
			So(lx.IsNavigation(NewText("Ajouter un produit dans le panier")), ShouldBeFalse)
		})

		Convey("When blacklists are checked", func() {
			class, term := lx.Blacklisted(NewText("Promotion Club - 2€ cagnottés"))
			So(class, ShouldEqual, BlacklistPromotion)
			So(term, ShouldEqual, "promotion")

			class, _ = lx.Blacklisted(NewText("3 new notifications"))
			So(class, ShouldEqual, BlacklistSystem)

			class, _ = lx.Blacklisted(NewText("Produits indisponibles"))
			So(class, ShouldEqual, BlacklistGeneric)

			class, _ = lx.Blacklisted(NewText("Bananes bio 1kg 2,50€"))
			So(class, ShouldEqual, BlacklistNone)
		})

		Convey("When identities are derived", func() {
			So(lx.Identity("Bananes bio 1kg 2,50€"), ShouldEqual, "bananes bio 1kg")
			So(lx.Identity("Prix N/A"), ShouldEqual, "")
			So(lx.Identity("Produit Prix N/A"), ShouldEqual, "produit")
			So(lx.Identity("Saucisses de Toulouse 4,20€/kg"), ShouldEqual, "saucisses de toulouse")
			So(lx.IsGeneric("produit"), ShouldBeTrue)
			So(lx.IsGeneric("bananes bio"), ShouldBeFalse)
		})

		Convey("When product keywords are counted", func() {
			So(lx.ProductKeywordHits(NewText("Bananes bio")), ShouldBeGreaterThanOrEqualTo, 2)
			So(lx.ProductKeywordHits(NewText("Veuillez rentrer une ville")), ShouldEqual, 0)
		})

		Convey("When widget classes and packages are checked", func() {
			So(lx.IsWebClass("android.webkit.WebView"), ShouldBeTrue)
			So(lx.IsListClass("androidx.recyclerview.widget.RecyclerView"), ShouldBeTrue)
			So(lx.IsTabClass("com.google.android.material.tabs.TabLayout"), ShouldBeTrue)
			So(lx.IsBottomNavClass("BottomNavigationView"), ShouldBeTrue)
			So(lx.IsSystemPackage("com.android.systemui"), ShouldBeTrue)
			So(lx.IsSystemPackage("com.carrefour.fid.android"), ShouldBeFalse)
		})

		Convey("When brands are guessed", func() {
			b, ok := lx.Brand("com.carrefour.fid.android")
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, "Carrefour")

			_, ok = lx.Brand("com.example.shop")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPrices(t *testing.T) {
	lx := Compile(Default())

	Convey("Given price tokens", t, func() {
		Convey("Then FindPrice locates the first one", func() {
			tok, ok := lx.FindPrice("Emmental râpé 200g 2,80€")
			So(ok, ShouldBeTrue)
			So(tok, ShouldEqual, "2,80€")

			_, ok = lx.FindPrice("Pommes Golden")
			So(ok, ShouldBeFalse)
		})

		Convey("Then ParsePrice reads exact amounts", func() {
			for token, want := range map[string]string{
				"2,50€":     "2.5",
				"€3.20":     "3.2",
				"2€50":      "2.5",
				"4,20€/kg":  "4.2",
				"0,00€":     "0",
				"12 euros":  "12",
			} {
				got, ok := ParsePrice(token)
				So(ok, ShouldBeTrue)
				So(got.Equal(decimal.RequireFromString(want)), ShouldBeTrue)
			}

			_, ok := ParsePrice("N/A")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given vocabulary files", t, func() {
		dir := t.TempDir()

		Convey("When the path is empty", func() {
			v, err := LoadFile("")

			Convey("Then the default vocabulary is returned", func() {
				So(err, ShouldBeNil)
				So(v.CartTerms, ShouldResemble, Default().CartTerms)
			})
		})

		Convey("When a file overrides some lists", func() {
			path := filepath.Join(dir, "vocab.yaml")
			content := "cart_terms:\n  - warenkorb\nbrands:\n  rewe: REWE\n"
			So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

			v, err := LoadFile(path)

			Convey("Then those lists are replaced and the rest kept", func() {
				So(err, ShouldBeNil)
				So(v.CartTerms, ShouldResemble, []string{"warenkorb"})
				So(v.Brands, ShouldResemble, map[string]string{"rewe": "REWE"})
				So(v.SearchTerms, ShouldResemble, Default().SearchTerms)

				b, ok := Compile(v).Brand("de.rewe.app")
				So(ok, ShouldBeTrue)
				So(b, ShouldEqual, "REWE")
			})
		})

		Convey("When the file does not exist", func() {
			_, err := LoadFile(filepath.Join(dir, "missing.yaml"))

			Convey("Then ErrInvalidVocabulary is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, ErrInvalidVocabulary.Error())
			})
		})
	})
}
