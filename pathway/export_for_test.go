package pathway

// MixingCoefficients exposes mixingCoefficients to the external tests.
var MixingCoefficients = mixingCoefficients
