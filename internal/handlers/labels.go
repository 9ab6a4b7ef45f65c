package handlers

// Quality model output order, and the grade each class maps to.
var (
	QualityClasses = []string{"Bad Quality_Fruits", "Good Quality_Fruits", "Mixed Qualit_Fruits"}
	QualityGrades  = []string{"C", "A", "B"}
)

// DiseaseClasses is the leaf disease model's output order.
var DiseaseClasses = []string{
	"Pepper__bell___Bacterial_spot",
	"Pepper__bell___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Tomato_Bacterial_spot",
	"Tomato_Early_blight",
	"Tomato_Late_blight",
	"Tomato_Leaf_Mold",
	"Tomato_Septoria_leaf_spot",
	"Tomato_Spider_mites_Two_spotted_spider_mite",
	"Tomato__Target_Spot",
	"Tomato__Tomato_YellowLeaf__Curl_Virus",
	"Tomato__Tomato_mosaic_virus",
	"Tomato_healthy",
}

const (
	StatusHealthy  = "Healthy"
	StatusDiseased = "Disease Detected"
)

// QualityProbabilityKeys labels each quality class as "A (Good Quality_Fruits)".
func QualityProbabilityKeys() []string {
	keys := make([]string, len(QualityClasses))
	for i, class := range QualityClasses {
		keys[i] = QualityGrades[i] + " (" + class + ")"
	}
	return keys
}
