package rdf

const (
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL  = "http://www.w3.org/2002/07/owl#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
)

const (
	RDFType       = NSRDF + "type"
	RDFFirst      = NSRDF + "first"
	RDFRest       = NSRDF + "rest"
	RDFNil        = NSRDF + "nil"
	RDFProperty   = NSRDF + "Property"
	RDFLangString = NSRDF + "langString"

	RDFSClass      = NSRDFS + "Class"
	RDFSLabel      = NSRDFS + "label"
	RDFSComment    = NSRDFS + "comment"
	RDFSDomain     = NSRDFS + "domain"
	RDFSRange      = NSRDFS + "range"
	RDFSSubClassOf = NSRDFS + "subClassOf"
	RDFSIsDefined  = NSRDFS + "isDefinedBy"

	OWLClass              = NSOWL + "Class"
	OWLObjectProperty     = NSOWL + "ObjectProperty"
	OWLDatatypeProperty   = NSOWL + "DatatypeProperty"
	OWLAnnotationProperty = NSOWL + "AnnotationProperty"
	OWLImports            = NSOWL + "imports"
	OWLOntology           = NSOWL + "Ontology"

	XSDString  = NSXSD + "string"
	XSDInteger = NSXSD + "integer"
	XSDDecimal = NSXSD + "decimal"
	XSDDouble  = NSXSD + "double"
	XSDBoolean = NSXSD + "boolean"
)

// IsClassType reports whether iri marks its subject as a class.
func IsClassType(iri string) bool {
	return iri == RDFSClass || iri == OWLClass
}

// IsPropertyType reports whether iri marks its subject as a property.
func IsPropertyType(iri string) bool {
	switch iri {
	case RDFProperty, OWLObjectProperty, OWLDatatypeProperty, OWLAnnotationProperty:
		return true
	}
	return false
}
