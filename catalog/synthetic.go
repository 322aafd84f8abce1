package catalog

import (
	"math/rand/v2"

	"github.com/poiesic/medrank/core"
)

// Symptoms used by the synthetic catalog.
var Symptoms = []string{
	"fever", "headache", "cough", "runny nose", "sore throat", "fatigue",
	"body ache", "nausea", "vomiting", "diarrhea", "constipation", "dizziness",
	"chest pain", "shortness of breath", "abdominal pain", "rash", "joint pain",
	"back pain", "ear pain", "eye irritation", "swelling", "high blood pressure",
	"low blood pressure", "high blood sugar", "low blood sugar", "anxiety",
	"depression", "insomnia", "loss of appetite", "weight loss", "weight gain",
}

// Medications used by the synthetic catalog.
var Medications = []string{
	"Acetaminophen", "Ibuprofen", "Aspirin", "Amoxicillin", "Azithromycin",
	"Loratadine", "Cetirizine", "Diphenhydramine", "Pseudoephedrine", "Guaifenesin",
	"Dextromethorphan", "Phenylephrine", "Omeprazole", "Ranitidine", "Famotidine",
	"Simvastatin", "Atorvastatin", "Lisinopril", "Amlodipine", "Metformin",
	"Albuterol", "Fluticasone", "Montelukast", "Prednisone", "Metoprolol",
	"Losartan", "Hydrochlorothiazide", "Sertraline", "Fluoxetine", "Escitalopram",
	"Levothyroxine", "Gabapentin", "Tramadol", "Cyclobenzaprine", "Meloxicam",
	"Naproxen", "Ciprofloxacin", "Metronidazole", "Fluconazole", "Amoxicillin-Clavulanate",
}

const maxSyntheticSymptoms = 4

// Synthetic generates a demo catalog: every medication gets 1-4 distinct
// symptoms drawn without replacement. The same seed always yields the same
// catalog. Tags are normalized.
func Synthetic(seed uint64) []core.CatalogRecord {
	rng := rand.New(rand.NewPCG(seed, seed))

	records := make([]core.CatalogRecord, len(Medications))
	for i, name := range Medications {
		count := rng.IntN(maxSyntheticSymptoms) + 1
		picks := rng.Perm(len(Symptoms))[:count]

		tags := make([]string, count)
		for j, p := range picks {
			tags[j] = NormalizeTag(Symptoms[p])
		}
		records[i] = core.CatalogRecord{ItemID: name, Tags: tags}
	}
	return records
}
